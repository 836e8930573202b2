// Package shell is the debug console spec describes: a line-oriented
// command loop over the kernel facade exposing ls, cat, mkdir, ps,
// kill, run, free, and help. Structurally grounded on
// prompt/prompt.go's Executor func(string) callback shape — the
// driving read loop here is a plain bufio.Scanner rather than
// prompt's full readline/completion/history engine, since a fixed
// eight-command set has no use for line editing or tab completion.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/shyper-org/Unishyper-sub001/kernel"
	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// Executor matches prompt.go's callback shape: one line in, output
// written to the shell's configured writer.
type Executor func(line string)

// fsNode is one entry in the shell's in-memory scratch filesystem,
// backing ls/cat/mkdir. The kernel has no real storage stack in scope;
// this gives the three filesystem commands something real to operate
// on without inventing a storage subsystem the spec doesn't call for.
type fsNode struct {
	isDir    bool
	contents string
	children map[string]*fsNode
}

// Shell is the debug console: command dispatch plus the scratch
// filesystem ls/cat/mkdir operate on.
type Shell struct {
	k   *kernel.Kernel
	out io.Writer

	mu   sync.Mutex
	root *fsNode
}

// New constructs a Shell writing command output to out.
func New(k *kernel.Kernel, out io.Writer) *Shell {
	return &Shell{
		k:    k,
		out:  out,
		root: &fsNode{isDir: true, children: make(map[string]*fsNode)},
	}
}

// Run reads newline-terminated commands from in until EOF, dispatching
// each to Execute.
func (s *Shell) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		s.Execute(scanner.Text())
	}
}

// Execute parses and runs a single command line.
func (s *Shell) Execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help":
		s.help()
	case "ls":
		s.ls(args)
	case "cat":
		s.cat(args)
	case "mkdir":
		s.mkdir(args)
	case "ps":
		s.ps()
	case "kill":
		s.kill(args)
	case "run":
		s.run(args)
	case "free":
		s.free()
	default:
		fmt.Fprintf(s.out, "unknown command: %s\n", cmd)
	}
}

func (s *Shell) help() {
	fmt.Fprintln(s.out, "commands: ls [dir] | cat <file> | mkdir <dir> | ps | kill <tid> | run <name> | free | help")
}

func (s *Shell) resolve(path string) (*fsNode, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	node := s.root
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == len(parts)-1 {
			return node, p, true
		}
		next, ok := node.children[p]
		if !ok || !next.isDir {
			return nil, "", false
		}
		node = next
	}
	return node, "", true
}

func (s *Shell) ls(args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := s.root
	if len(args) > 0 {
		node, _, ok := s.resolve(args[0] + "/.")
		if !ok || node == nil {
			fmt.Fprintf(s.out, "ls: no such directory: %s\n", args[0])
			return
		}
		dir = node
	}
	for name := range dir.children {
		fmt.Fprintln(s.out, name)
	}
}

func (s *Shell) cat(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: cat <file>")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, name, ok := s.resolve(args[0])
	if !ok {
		fmt.Fprintf(s.out, "cat: no such file: %s\n", args[0])
		return
	}
	node, ok := parent.children[name]
	if !ok || node.isDir {
		fmt.Fprintf(s.out, "cat: no such file: %s\n", args[0])
		return
	}
	fmt.Fprintln(s.out, node.contents)
}

func (s *Shell) mkdir(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: mkdir <dir>")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, name, ok := s.resolve(args[0])
	if !ok {
		fmt.Fprintf(s.out, "mkdir: no such parent directory: %s\n", args[0])
		return
	}
	if _, exists := parent.children[name]; exists {
		fmt.Fprintf(s.out, "mkdir: already exists: %s\n", args[0])
		return
	}
	parent.children[name] = &fsNode{isDir: true, children: make(map[string]*fsNode)}
}

func (s *Shell) ps() {
	snapshot := s.k.Registry().Snapshot()
	fmt.Fprintln(s.out, "TID\tSTATUS")
	for tid, status := range snapshot {
		fmt.Fprintf(s.out, "%d\t%s\n", uint64(tid), status.String())
	}
}

func (s *Shell) kill(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: kill <tid>")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "kill: invalid tid: %s\n", args[0])
		return
	}
	s.k.DestroyByID(kthread.Tid(id))
	fmt.Fprintf(s.out, "destroyed %d\n", id)
}

func (s *Shell) run(args []string) {
	name := "shell-spawn"
	if len(args) > 0 {
		name = args[0]
	}
	id, err := s.k.SpawnNamed(name, func(self *kthread.Thread, _, _ uint64) {
		s.k.Exit(self, 0)
	}, 0, 0)
	if err != nil {
		fmt.Fprintf(s.out, "run: %s\n", err)
		return
	}
	fmt.Fprintf(s.out, "spawned %d\n", uint64(id))
}

func (s *Shell) free() {
	allocated, freed := s.k.Stacks().Stats()
	fmt.Fprintf(s.out, "stacks allocated=%d freed=%d live=%d\n", allocated, freed, allocated-freed)
}
