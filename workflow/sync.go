package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/database"
	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/utils"
)

// DefaultSourceURL is the yearly historical quotes archive of the exchange.
const DefaultSourceURL = "https://bvmf.bmfbovespa.com.br/InstDados/SerHist/COTAHIST_A%d.ZIP"

// TaskEnv is shared by the tasks of one sync run.
type TaskEnv struct {
	Store     *store.Store
	Mirror    database.MirrorRepository // nil skips the mirror task
	Log       *zap.Logger
	CacheDir  string
	SourceURL string // printf pattern taking the year
	Keep      bool   // keep downloaded archives
	Download  func(ctx context.Context, url, target string) error
}

func (env *TaskEnv) archivePath(year int) string {
	return filepath.Join(env.CacheDir, fmt.Sprintf("COTAHIST_A%d.ZIP", year))
}

func fetchTaskName(year int) string  { return fmt.Sprintf("fetch_%d", year) }
func importTaskName(year int) string { return fmt.Sprintf("import_%d", year) }

const mirrorTaskName = "mirror"

// SyncTasks builds the task graph of a sync over the given years:
// downloads run concurrently, imports run one at a time in year order, and
// the mirror reload runs last.
func SyncTasks(years []int) ([]*Task, []string) {
	var tasks []*Task
	var names []string
	prevImport := ""

	for _, year := range years {
		fetch := &Task{
			Name:     fetchTaskName(year),
			Executor: fetchYear(year),
		}
		deps := []string{fetch.Name}
		if prevImport != "" {
			deps = append(deps, prevImport)
		}
		imp := &Task{
			Name:      importTaskName(year),
			DependsOn: deps,
			Executor:  importYear(year),
			Exclusive: true,
		}
		tasks = append(tasks, fetch, imp)
		names = append(names, fetch.Name, imp.Name)
		prevImport = imp.Name
	}

	mirror := &Task{
		Name:      mirrorTaskName,
		Executor:  executeMirror,
		Exclusive: true,
		SkipIf: func(_ context.Context, env *TaskEnv) bool {
			return env.Mirror == nil
		},
	}
	if prevImport != "" {
		mirror.DependsOn = []string{prevImport}
	}
	tasks = append(tasks, mirror)
	names = append(names, mirror.Name)
	return tasks, names
}

// Sync downloads, imports and optionally mirrors the given years.
func Sync(ctx context.Context, env *TaskEnv, years []int) (map[string]*TaskResult, error) {
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	if env.SourceURL == "" {
		env.SourceURL = DefaultSourceURL
	}
	if env.Download == nil {
		env.Download = utils.DownloadFile
	}
	if env.CacheDir == "" {
		dir, err := utils.GetCacheDir()
		if err != nil {
			return nil, err
		}
		env.CacheDir = dir
	}

	tasks, names := SyncTasks(years)
	return NewTaskExecutor(env, tasks).Run(ctx, names)
}

func fetchYear(year int) TaskFunc {
	return func(ctx context.Context, env *TaskEnv) (*TaskResult, error) {
		url := fmt.Sprintf(env.SourceURL, year)
		target := env.archivePath(year)
		fmt.Printf("🐢 Downloading %s\n", url)
		if err := env.Download(ctx, url, target); err != nil {
			return nil, fmt.Errorf("failed to download %d quotes: %w", year, err)
		}
		return &TaskResult{Message: target}, nil
	}
}

func importYear(year int) TaskFunc {
	return func(ctx context.Context, env *TaskEnv) (*TaskResult, error) {
		path := env.archivePath(year)
		if !env.Keep {
			defer os.Remove(path)
		}

		in, err := utils.OpenInput(path)
		if err != nil {
			return nil, err
		}
		defer in.Close()

		res, err := Import(ctx, in, env.Store, env.Log.With(zap.Int("year", year)))
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", in.Name, err)
		}
		fmt.Printf("📈 %d: %d quotes of %d stocks imported\n", year, res.Quotes, res.Stocks)
		return &TaskResult{Rows: res.Quotes, Message: in.Name}, nil
	}
}

func executeMirror(ctx context.Context, env *TaskEnv) (*TaskResult, error) {
	res, err := Mirror(ctx, env.Store, env.Mirror, env.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to mirror database: %w", err)
	}
	fmt.Printf("🦆 Mirror reloaded: %d quotes of %d stocks\n", res.Quotes, res.Stocks)
	return &TaskResult{Rows: res.Quotes}, nil
}

// ParseYears reads a comma separated list of years and ranges such as
// "2019-2021,2024".
func ParseYears(s string) ([]int, error) {
	seen := make(map[int]bool)
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to := part, part
		if i := strings.Index(part, "-"); i > 0 {
			from, to = part[:i], part[i+1:]
		}
		a, errA := strconv.Atoi(from)
		b, errB := strconv.Atoi(to)
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("invalid year '%s'", part)
		}
		if a < 1986 || b < a || b > 9999 {
			return nil, fmt.Errorf("invalid year range '%s'", part)
		}
		for y := a; y <= b; y++ {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no year given")
	}
	sort.Ints(years)
	return years, nil
}
