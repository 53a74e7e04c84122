// Command taskcheck validates a TOML task manifest against the kernel's
// static configuration rules: name uniqueness, priority range, optional
// unique-priority policy, and the aggregate stack budget. It checks the
// manifest without starting a kernel, so it can run in CI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"ember/kernel"
)

type manifest struct {
	StackBudget      uint32      `toml:"stack_budget"`
	UniquePriorities bool        `toml:"unique_priorities"`
	Tasks            []taskEntry `toml:"task"`
}

type taskEntry struct {
	Name     string `toml:"name"`
	Priority uint8  `toml:"priority"`
	Stack    uint32 `toml:"stack"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: taskcheck manifest.toml...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := check(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	if failed {
		os.Exit(1)
	}
}

func check(path string) error {
	var m manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return err
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return fmt.Errorf("unknown manifest key %q", undec[0].String())
	}

	set := make(kernel.TaskSet, len(m.Tasks))
	for i, t := range m.Tasks {
		set[i] = kernel.TaskConfig{
			Name:       t.Name,
			Priority:   t.Priority,
			StackBytes: t.Stack,
		}
	}
	return kernel.ValidateTaskSet(set, kernel.Limits{
		StackBudget:      m.StackBudget,
		UniquePriorities: m.UniquePriorities,
	})
}
