package langs

import (
	"context"
	"fmt"
	"path/filepath"
)

type Python struct {
	Interpreter string
}

func (*Python) Name() string { return NamePython }

func (*Python) Extensions() []string { return []string{".py"} }

func (p *Python) Compile(_ context.Context, path string) (*Compiled, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &Compiled{Language: NamePython, Cmd: []string{p.Interpreter, abs}}, nil
}

// TextCat serves hand-written inputs by printing them.
type TextCat struct{}

func (TextCat) Name() string { return NameTextCat }

func (TextCat) Extensions() []string { return []string{".txt", ".in"} }

func (TextCat) Compile(_ context.Context, path string) (*Compiled, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &Compiled{Language: NameTextCat, Cmd: []string{"cat", abs}}, nil
}
