//go:build !unix

package downloader

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
