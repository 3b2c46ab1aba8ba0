// Package npm drives the npm command-line tool: dependency installs, the
// extraction build script, publish scripts, and registry queries.
package npm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// CleanInstall installs the checked-out commit's declared dependencies in
// CI mode, ignoring any developer-local state.
func CleanInstall(dir string) error {
	cmd := exec.Command("npm", "clean-install", "--no-audit", "--no-fund")
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to install dependencies: %w\n%s", err, bytes.TrimSpace(output))
	}
	return nil
}

// RunExtract runs the named build script with a --date argument, buffering
// stdout and stderr independently until the process exits. The inventory
// document arrives on stdout and may span many lines, so output is
// accumulated whole rather than consumed line by line.
func RunExtract(dir, script string, day time.Time) (stdout, stderr []byte, err error) {
	cmd := exec.Command("npm", "run", "--silent", script, "--", "--date="+day.Format("2006-01-02"))
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		return nil, errBuf.Bytes(), fmt.Errorf("failed to start extraction script %q: %w", script, err)
	}
	if err := cmd.Wait(); err != nil {
		return outBuf.Bytes(), errBuf.Bytes(), fmt.Errorf("extraction script %q failed: %w", script, err)
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}

// RunScript runs a named package script, e.g. the publish or dry-run-publish
// script.
func RunScript(dir, script string) error {
	cmd := exec.Command("npm", "run", "--silent", script)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("script %q failed: %w\n%s", script, err, bytes.TrimSpace(output))
	}
	return nil
}

// ViewPublishTimes queries the registry's per-version publish-time table for
// a package.
func ViewPublishTimes(pkg string) (map[string]time.Time, error) {
	cmd := exec.Command("npm", "view", pkg, "time", "--json")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query publish times for %s: %w", pkg, err)
	}
	return parsePublishTimes(output)
}

// parsePublishTimes decodes npm's version-to-timestamp table. npm reports an
// error object (not a table) for unknown packages even on some zero exits,
// so a non-object or error payload is an error here.
func parsePublishTimes(raw []byte) (map[string]time.Time, error) {
	var table map[string]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse publish times: %w", err)
	}

	times := make(map[string]time.Time, len(table))
	for version, stamp := range table {
		at, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse publish time of %s: %w", version, err)
		}
		times[version] = at
	}
	return times, nil
}
