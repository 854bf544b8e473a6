// Package ttree reads and writes t-tree documents: a YAML list of trees,
// each with the DA it was planned for and its nodes in index order.
// Node 0 is the technical root (parent -1).
package ttree

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/AnneBeyer/tgen/nlp/format/da"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Node struct {
	Lemma     string `yaml:"lemma,omitempty"`
	Formeme   string `yaml:"formeme,omitempty"`
	Functor   string `yaml:"functor,omitempty"`
	Parent    int    `yaml:"parent"`
	Generated bool   `yaml:"generated,omitempty"`
}

type Tree struct {
	DA    string `yaml:"da,omitempty"`
	Nodes []Node `yaml:"nodes"`
}

func FromTree(d types.DA, t *types.Tree) Tree {
	nodes := t.Nodes()
	retval := Tree{Nodes: make([]Node, len(nodes))}
	if len(d) > 0 {
		retval.DA = d.String()
	}
	for i, n := range nodes {
		retval.Nodes[i] = Node{n.Lemma, n.Formeme, n.Functor, n.Parent, n.Generated}
	}
	return retval
}

func (t Tree) ToTree() (types.DA, *types.Tree, error) {
	var (
		parsed types.DA
		err    error
	)
	if t.DA != "" {
		if parsed, err = da.Parse(t.DA); err != nil {
			return nil, nil, err
		}
	}
	if len(t.Nodes) == 0 {
		return parsed, types.NewRootTree(nil), nil
	}
	nodes := make([]types.Node, len(t.Nodes))
	for i, n := range t.Nodes {
		nodes[i] = types.Node{Lemma: n.Lemma, Formeme: n.Formeme, Functor: n.Functor, Parent: n.Parent, Generated: n.Generated}
	}
	tree, err := types.NewTree(nodes)
	return parsed, tree, err
}

func Read(reader io.Reader) ([]types.DA, []*types.Tree, error) {
	data, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading trees")
	}
	var doc []Tree
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Wrap(err, "parsing trees")
	}
	das := make([]types.DA, len(doc))
	trees := make([]*types.Tree, len(doc))
	for i, t := range doc {
		if das[i], trees[i], err = t.ToTree(); err != nil {
			return nil, nil, errors.Wrapf(err, "tree %d", i)
		}
	}
	return das, trees, nil
}

func ReadFile(filename string) ([]types.DA, []*types.Tree, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed opening %s", filename)
	}
	defer file.Close()

	das, trees, err := Read(file)
	return das, trees, errors.Wrapf(err, "in %s", filename)
}

// Write writes trees with their DAs; das may be nil or shorter than trees
// when trees are written without a DA.
func Write(writer io.Writer, das []types.DA, trees []*types.Tree) error {
	doc := make([]Tree, len(trees))
	for i, t := range trees {
		var d types.DA
		if i < len(das) {
			d = das[i]
		}
		doc[i] = FromTree(d, t)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding trees")
	}
	_, err = writer.Write(data)
	return errors.Wrap(err, "writing trees")
}

func WriteFile(filename string, das []types.DA, trees []*types.Tree) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed creating %s", filename)
	}
	if err := Write(file, das, trees); err != nil {
		file.Close()
		return errors.Wrapf(err, "in %s", filename)
	}
	return errors.Wrapf(file.Close(), "closing %s", filename)
}
