//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed in a window.
func (Run) Testbed() error {
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs("run", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed headless with artificial stalls to exercise catch-up updates.
func (Run) Stress() error {
	mg.Deps(Build.Testbed)
	_, err := executeCmd("bin/testbed", withArgs("-headless", "-stall-chance", "0.05", "-stall", "200ms"), withStream())
	return err
}
