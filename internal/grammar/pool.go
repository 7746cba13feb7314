package grammar

import (
	"fmt"
	"sync"

	"github.com/mvp-joe/treeparser/internal/lang"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

type binding struct {
	lang   lang.Language
	parser *sitter.Parser
}

// Pool caches grammar-bound parsers so each language is bound at most once.
// Lookup is a linear scan; a traversal rarely touches more than a handful of
// languages. All operations hold the pool lock, including Parse, so a Pool is
// safe to share, though the orchestrator gives each worker its own.
type Pool struct {
	mu       sync.Mutex
	bindings []binding
	closed   bool
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// acquire must be called with p.mu held.
func (p *Pool) acquire(l lang.Language) (*sitter.Parser, error) {
	if p.closed {
		return nil, fmt.Errorf("parser pool closed")
	}
	for _, b := range p.bindings {
		if b.lang == l {
			return b.parser, nil
		}
	}

	g, err := Bind(l)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	if err := parser.SetLanguage(g); err != nil {
		parser.Close()
		return nil, fmt.Errorf("bind %s grammar: %w", l, err)
	}
	p.bindings = append(p.bindings, binding{lang: l, parser: parser})
	return parser, nil
}

// Warm binds a parser for l without parsing anything.
func (p *Pool) Warm(l lang.Language) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.acquire(l)
	return err
}

// Parse parses source with the pooled parser for l.
func (p *Pool) Parse(l lang.Language, source []byte) (*SyntaxTree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	parser, err := p.acquire(l)
	if err != nil {
		return nil, err
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w (%s)", ErrParseFailed, l)
	}
	g, _ := Bind(l)
	return newSyntaxTree(tree, g, l), nil
}

// Len returns the number of distinct languages bound so far.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bindings)
}

// Close releases every pooled parser. Further use returns an error.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.bindings {
		b.parser.Close()
	}
	p.bindings = nil
	p.closed = true
}
