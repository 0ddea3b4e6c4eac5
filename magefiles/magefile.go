//go:build mage

// Package main contains Mage build targets for mdbatch developer tooling.
package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir    = "bin"
	binName   = "mdbatch"
	cmdPkg    = "./cmd/mdbatch"
	imagesDir = "images"
)

// containerTools are the tools shipped as container images under images/.
var containerTools = []string{"docling", "marker", "markitdown"}

// inputDirs are the sample input folders referenced by the example sources
// file.
var inputDirs = []string{
	"_testing-files/pdf",
	"_testing-files/html",
}

// Init creates the sample input folders and an example sources file.
func Init() error {
	for _, dir := range inputDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat("sources.yaml"); os.IsNotExist(err) {
		mg.Deps(Build)
		if err := sh.RunV(filepath.Join(binDir, binName), "sources", "init", "sources.yaml"); err != nil {
			return err
		}
	}
	fmt.Println("Project directories initialized.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the git version.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Images builds the docling, marker and markitdown images with docker or
// podman, tagged <tool>:latest.
func Images() error {
	runtime, err := containerRuntime()
	if err != nil {
		return err
	}
	for _, tool := range containerTools {
		dir := filepath.Join(imagesDir, tool)
		fmt.Printf("Building %s:latest with %s\n", tool, runtime)
		if err := sh.RunV(runtime, "build", "-t", tool+":latest", dir); err != nil {
			return fmt.Errorf("building %s image: %w", tool, err)
		}
	}
	return nil
}

func containerRuntime() (string, error) {
	for _, bin := range []string{"docker", "podman"} {
		if _, err := exec.LookPath(bin); err == nil {
			return bin, nil
		}
	}
	return "", fmt.Errorf("neither docker nor podman found on PATH")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	var prod, test, words int
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), "_") || (info.Name() != "." && strings.HasPrefix(info.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		switch {
		case strings.HasSuffix(path, "_test.go"):
			test += nonBlankLines(data)
		case filepath.Ext(path) == ".go":
			prod += nonBlankLines(data)
		case filepath.Ext(path) == ".md":
			words += len(strings.Fields(string(data)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
