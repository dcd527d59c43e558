//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles both executables into ./bin
func Build() error {
	mg.Deps(BuildEventBuilder)
	mg.Deps(BuildWindowScan)
	fmt.Println("Compilation finished")
	return nil
}

func BuildEventBuilder() error {
	fmt.Println("Building eventbuilder executable...")
	return goBuild("./bin/eventbuilder", "./eventbuilder")
}

func BuildWindowScan() error {
	fmt.Println("Building windowScan executable...")
	return goBuild("./bin/windowScan", "./windowScan")
}

// Test runs the unit tests. The HDF5 library must be available to cgo.
func Test() error {
	cmd := exec.Command("go", "test", "./pkg/...", "./eventbuilder/...")
	cmd.Env = cgoEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func goBuild(output, pkg string) error {
	cmd := exec.Command("go", "build", "-o", output, pkg)
	cmd.Env = cgoEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func cgoEnv() []string {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	return append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
}
