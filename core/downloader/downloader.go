package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"EternalJukebox/logger"

	"github.com/google/uuid"
)

var (
	// ErrTimeout means the process was killed after Job.Timeout elapsed.
	ErrTimeout = errors.New("download timed out")
	// ErrNoOutput means the process exited cleanly without producing the file.
	ErrNoOutput = errors.New("download produced no output")
)

// Job describes one invocation of the download program.
type Job struct {
	Source      string        // URL or anything the script understands
	Destination string        // final path inside a cache namespace
	Format      string        // container/codec extension passed to the script
	LogName     string        // process output goes to <logDir>/<LogName>.log
	Timeout     time.Duration // 0 waits for the process to exit
}

// Downloader runs an external program as `<shell> <script> <source> <dest> <format>`.
// The program writes to a temporary sibling of the destination that is
// renamed into place once the process has exited successfully.
type Downloader struct {
	shell     string
	script    string
	logDir    string
	waitDelay time.Duration
}

// New 创建下载器
func New(shell, script, logDir string) *Downloader {
	return &Downloader{
		shell:     shell,
		script:    script,
		logDir:    logDir,
		waitDelay: 5 * time.Second,
	}
}

// Download runs job and blocks until the process exits, the timeout fires or
// ctx is cancelled. The process group is killed on every non-normal exit.
func (d *Downloader) Download(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	dir := filepath.Dir(job.Destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, "."+uuid.NewString()+"."+job.Format)
	defer os.Remove(tmp)

	if err := os.MkdirAll(d.logDir, 0755); err != nil {
		return fmt.Errorf("create log directory %s: %w", d.logDir, err)
	}
	logPath := filepath.Join(d.logDir, filepath.Base(job.LogName)+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("create process log %s: %w", logPath, err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, d.shell, d.script, job.Source, tmp, job.Format)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.WaitDelay = d.waitDelay
	configureProcessGroup(cmd)

	logger.Info("[Downloader] 启动下载进程",
		logger.String("source", job.Source),
		logger.String("destination", job.Destination),
		logger.Duration("timeout", job.Timeout))

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Warn("[Downloader] 下载超时，进程已终止",
			logger.String("source", job.Source),
			logger.Duration("elapsed", elapsed))
		return fmt.Errorf("%w after %s (log: %s)", ErrTimeout, job.Timeout, logPath)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("%s %s exited: %w (log: %s)", d.shell, d.script, runErr, logPath)
	}

	if _, err := os.Stat(tmp); err != nil {
		return fmt.Errorf("%w (log: %s)", ErrNoOutput, logPath)
	}
	if err := os.Rename(tmp, job.Destination); err != nil {
		return fmt.Errorf("move %s into place: %w", job.Destination, err)
	}

	logger.Info("[Downloader] 下载完成",
		logger.String("destination", job.Destination),
		logger.Duration("elapsed", elapsed))
	return nil
}
