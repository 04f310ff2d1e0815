//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs the host loop tests only.
func (Test) Host() error {
	_, err := executeCmd("go", withArgs("test", "-run", "HostCore|RunOneTick|RunningSlowly|CatchUp|Disposal|VariableTimeStep|ResetElapsed", "./engine/"), withStream())
	return err
}
