package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/SourceScope/source-scope-mcp/internal/selfupdate"
)

// newCommand wraps exec.Command for testability.
var newCommand = exec.Command

func runUpdate(args []string) int {
	dryRun := false
	for _, a := range args {
		switch a {
		case "--dry-run":
			dryRun = true
		case "--help", "-h":
			fmt.Println("usage: source-scope-mcp update [--dry-run]")
			return 0
		}
	}

	fmt.Printf("\nsource-scope-mcp %s — checking for updates...\n", version)

	if runtime.GOOS == "windows" {
		fmt.Println("Self-update is not supported on Windows; download the latest")
		fmt.Println("release from https://github.com/SourceScope/source-scope-mcp/releases/latest")
		return 1
	}

	ctx := context.Background()
	release, err := selfupdate.FetchLatestRelease(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: fetch release: %v\n", err)
		return 1
	}

	latest := release.LatestVersion()
	if latest == "" {
		fmt.Println("Could not determine latest version.")
		return 1
	}
	current := strings.TrimSuffix(version, "-dev")
	if selfupdate.CompareVersions(latest, current) <= 0 {
		fmt.Printf("Already up to date (v%s).\n", current)
		return 0
	}
	fmt.Printf("Update available: v%s → v%s\n", current, latest)

	assetName := selfupdate.AssetName()
	asset := release.FindAsset(assetName)
	if asset == nil {
		fmt.Fprintf(os.Stderr, "error: no release asset for %s/%s (%s)\n", runtime.GOOS, runtime.GOARCH, assetName)
		return 1
	}

	if dryRun {
		fmt.Printf("[dry-run] Would download %s (%d bytes) and swap the binary in place.\n", assetName, asset.Size)
		return 0
	}

	binary, err := fetchReleaseBinary(ctx, release, asset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := swapBinary(binary); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Printf("\nUpdated to v%s. Restart your MCP client to pick it up.\n", latest)
	return 0
}

// fetchReleaseBinary downloads the platform asset, checks it against the
// release's checksums.txt when one is published, and unpacks the binary.
func fetchReleaseBinary(ctx context.Context, release *selfupdate.Release, asset *selfupdate.Asset) ([]byte, error) {
	checksums, err := selfupdate.DownloadChecksums(ctx, release)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (skipping checksum verification)\n", err)
	}

	fmt.Printf("Downloading %s...\n", asset.Name)
	body, _, err := selfupdate.DownloadAsset(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	archive, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}

	if want, ok := checksums[asset.Name]; ok {
		sum := sha256.Sum256(archive)
		if got := hex.EncodeToString(sum[:]); got != want {
			return nil, fmt.Errorf("checksum mismatch for %s: want %s, got %s", asset.Name, want, got)
		}
		fmt.Println("Checksum verified.")
	}

	binary, err := unpackBinary(archive)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return binary, nil
}

// swapBinary atomically replaces the running executable, keeping a .bak
// copy to roll back to when the new binary fails its smoke test.
func swapBinary(binary []byte) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate binary: %w", err)
	}
	target, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolve symlink: %w", err)
	}
	fmt.Printf("Replacing binary at %s...\n", target)

	staged := target + ".tmp"
	if err := os.WriteFile(staged, binary, 0o600); err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}
	if err := os.Chmod(staged, 0o500); err != nil {
		os.Remove(staged)
		return fmt.Errorf("chmod staged binary: %w", err)
	}

	backup := target + ".bak"
	if err := backupCopy(target, backup); err != nil {
		fmt.Fprintf(os.Stderr, "warning: backup failed: %v\n", err)
	}
	if err := os.Rename(staged, target); err != nil {
		os.Remove(staged)
		return fmt.Errorf("swap binary: %w", err)
	}

	if err := smokeTest(target); err != nil {
		fmt.Println("Restoring previous version...")
		if restoreErr := os.Rename(backup, target); restoreErr != nil {
			return fmt.Errorf("restore failed (%v), backup at: %s", restoreErr, backup)
		}
		fmt.Println("Previous version restored.")
		return fmt.Errorf("new binary failed verification: %w", err)
	}

	os.Remove(backup)
	return nil
}

// unpackBinary pulls the source-scope-mcp entry out of a .tar.gz release
// archive.
func unpackBinary(archive []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("binary not found in archive")
		}
		if err != nil {
			return nil, fmt.Errorf("tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasPrefix(filepath.Base(hdr.Name), "source-scope-mcp") {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read entry: %w", err)
		}
		return content, nil
	}
}

// smokeTest runs --version on the freshly installed binary.
func smokeTest(path string) error {
	out, err := newCommand(path, "--version").Output()
	if err != nil {
		return fmt.Errorf("--version failed: %w", err)
	}
	if !strings.Contains(string(out), "source-scope-mcp") {
		return fmt.Errorf("unexpected output: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

func backupCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
