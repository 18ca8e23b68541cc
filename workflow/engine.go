package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TaskState is the outcome of a task.
type TaskState string

const (
	StatePending   TaskState = "pending"
	StateCompleted TaskState = "completed"
	StateSkipped   TaskState = "skipped"
	StateFailed    TaskState = "failed"
)

type TaskResult struct {
	State   TaskState
	Rows    int
	Message string
	Error   error
}

type ErrorMode int

const (
	// ErrorModeStop aborts the run when the task fails.
	ErrorModeStop ErrorMode = iota
	// ErrorModeSkip records the failure and skips the dependents of the task.
	ErrorModeSkip
)

type TaskFunc func(ctx context.Context, env *TaskEnv) (*TaskResult, error)

// SkipCondition is evaluated right before a task would run.
type SkipCondition func(ctx context.Context, env *TaskEnv) bool

type Task struct {
	Name      string
	DependsOn []string
	Executor  TaskFunc
	SkipIf    SkipCondition
	OnError   ErrorMode
	// Exclusive tasks never run alongside other tasks.
	Exclusive bool
}

// TaskExecutor runs a task graph wave by wave. Tasks whose dependencies are
// all done run concurrently, except exclusive ones.
type TaskExecutor struct {
	env   *TaskEnv
	tasks map[string]*Task

	mu      sync.Mutex
	results map[string]*TaskResult
}

func NewTaskExecutor(env *TaskEnv, tasks []*Task) *TaskExecutor {
	byName := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t
	}
	return &TaskExecutor{env: env, tasks: byName}
}

// Run executes the named tasks and their order constraints. Dependencies
// that are not named are ignored.
func (te *TaskExecutor) Run(ctx context.Context, taskNames []string) (map[string]*TaskResult, error) {
	te.results = make(map[string]*TaskResult)
	if len(taskNames) == 0 {
		return te.results, nil
	}

	order, err := te.topologicalSort(taskNames)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task dependencies: %w", err)
	}
	pending := make(map[string]bool, len(order))
	for _, name := range order {
		pending[name] = true
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return te.results, err
		}

		ready := te.findReadyTasks(pending)
		if len(ready) == 0 {
			return te.results, fmt.Errorf("no task is ready to run")
		}

		var wg sync.WaitGroup
		for _, name := range ready {
			task := te.tasks[name]
			delete(pending, name)

			if dep := te.blockedBy(task); dep != "" {
				te.setResult(name, &TaskResult{State: StateSkipped, Message: "dependency " + dep + " did not complete"})
				continue
			}
			if task.SkipIf != nil && task.SkipIf(ctx, te.env) {
				te.setResult(name, &TaskResult{State: StateSkipped, Message: "skipped by condition"})
				continue
			}
			if task.Exclusive {
				wg.Wait()
				te.setResult(name, te.executeTask(ctx, task))
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				te.setResult(name, te.executeTask(ctx, task))
			}()
		}
		wg.Wait()

		for _, name := range ready {
			result := te.results[name]
			if result.State == StateFailed && te.tasks[name].OnError == ErrorModeStop {
				return te.results, fmt.Errorf("task %s failed: %w", name, result.Error)
			}
		}
	}
	return te.results, nil
}

func (te *TaskExecutor) setResult(name string, r *TaskResult) {
	te.mu.Lock()
	te.results[name] = r
	te.mu.Unlock()
}

func (te *TaskExecutor) executeTask(ctx context.Context, task *Task) *TaskResult {
	result, err := task.Executor(ctx, te.env)
	if err != nil {
		return &TaskResult{State: StateFailed, Error: err}
	}
	if result == nil {
		result = &TaskResult{}
	}
	if result.State == "" || result.State == StatePending {
		result.State = StateCompleted
	}
	return result
}

// blockedBy names a dependency that failed or was skipped for a failure.
func (te *TaskExecutor) blockedBy(task *Task) string {
	te.mu.Lock()
	defer te.mu.Unlock()
	for _, dep := range task.DependsOn {
		r, ok := te.results[dep]
		if !ok {
			continue
		}
		if r.State == StateFailed || (r.State == StateSkipped && r.Message != "skipped by condition") {
			return dep
		}
	}
	return ""
}

func (te *TaskExecutor) topologicalSort(taskNames []string) ([]string, error) {
	inDegree := make(map[string]int)
	adj := make(map[string][]string)
	taskSet := make(map[string]bool)

	for _, name := range taskNames {
		if _, exists := te.tasks[name]; !exists {
			return nil, fmt.Errorf("task %s not found", name)
		}
		taskSet[name] = true
		inDegree[name] = 0
	}
	for _, name := range taskNames {
		for _, dep := range te.tasks[name].DependsOn {
			if !taskSet[dep] {
				continue
			}
			adj[dep] = append(adj[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for _, name := range taskNames {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		for _, next := range adj[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(taskSet) {
		return nil, fmt.Errorf("circular dependency detected")
	}
	return order, nil
}

func (te *TaskExecutor) findReadyTasks(pending map[string]bool) []string {
	var ready []string
	for name := range pending {
		done := true
		for _, dep := range te.tasks[name].DependsOn {
			if pending[dep] {
				done = false
				break
			}
		}
		if done {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)
	return ready
}
