package repl

import (
	"fmt"

	"github.com/SimonWaldherr/minirel/internal/pager"
	"gopkg.in/yaml.v3"
)

// dumpDoc is the structured form the `.dump` meta-command renders as YAML,
// an alternative to the plain-text `.btree`/`.constants` dumps for tooling
// that wants to parse the tree shape instead of scraping indentation.
type dumpDoc struct {
	Constants dumpConstants `yaml:"constants"`
	Cache     dumpCache     `yaml:"cache"`
	Tree      dumpNode      `yaml:"tree"`
}

type dumpConstants struct {
	RowSize               int `yaml:"row_size"`
	CommonNodeHeaderSize  int `yaml:"common_node_header_size"`
	LeafNodeHeaderSize    int `yaml:"leaf_node_header_size"`
	LeafNodeCellSize      int `yaml:"leaf_node_cell_size"`
	LeafNodeSpaceForCells int `yaml:"leaf_node_space_for_cells"`
	LeafNodeMaxCells      int `yaml:"leaf_node_max_cells"`
}

type dumpCache struct {
	LoadedPages int     `yaml:"loaded_pages"`
	TotalPages  uint32  `yaml:"total_pages"`
	PageSize    int     `yaml:"page_size"`
	Occupancy   float64 `yaml:"occupancy"`
	NearFull    bool    `yaml:"near_full"`
}

type dumpNode struct {
	Type     string     `yaml:"type"`
	Page     uint32     `yaml:"page"`
	Keys     []uint32   `yaml:"keys,omitempty"`
	Children []dumpNode `yaml:"children,omitempty"`
}

func (r *REPL) dumpYAML() error {
	tree, err := r.buildDumpNode(r.table.RootPageNum)
	if err != nil {
		return err
	}

	stats := r.table.Pager.Stats()
	occupancy := float64(stats.LoadedPages) / float64(pager.TableMaxPages)

	doc := dumpDoc{
		Constants: dumpConstants{
			RowSize:               pager.RowSize,
			CommonNodeHeaderSize:  pager.CommonNodeHeaderSize,
			LeafNodeHeaderSize:    pager.LeafNodeHeaderSize,
			LeafNodeCellSize:      pager.LeafNodeCellSize,
			LeafNodeSpaceForCells: pager.LeafNodeSpaceForCells,
			LeafNodeMaxCells:      pager.LeafNodeMaxCells,
		},
		Cache: dumpCache{
			LoadedPages: stats.LoadedPages,
			TotalPages:  stats.TotalPages,
			PageSize:    stats.PageSize,
			Occupancy:   occupancy,
			NearFull:    occupancy >= r.cfg.CacheWarningThreshold,
		},
		Tree: tree,
	}

	enc := yaml.NewEncoder(r.out)
	defer enc.Close()
	return enc.Encode(doc)
}

func (r *REPL) buildDumpNode(pageNum pager.PageID) (dumpNode, error) {
	node, err := r.table.Pager.GetPage(pageNum)
	if err != nil {
		return dumpNode{}, err
	}

	switch pager.GetNodeType(node) {
	case pager.NodeLeaf:
		numCells := pager.LeafNodeNumCells(node)
		keys := make([]uint32, numCells)
		for i := range keys {
			keys[i] = pager.LeafNodeKey(node, uint32(i))
		}
		return dumpNode{Type: "leaf", Page: uint32(pageNum), Keys: keys}, nil

	case pager.NodeInternal:
		numKeys := pager.InternalNodeNumKeys(node)
		children := make([]dumpNode, 0, numKeys+1)
		for i := uint32(0); i < numKeys; i++ {
			child, err := r.buildDumpNode(pager.InternalNodeChild(node, i))
			if err != nil {
				return dumpNode{}, err
			}
			children = append(children, child)
		}
		rightChild, err := r.buildDumpNode(pager.InternalNodeRightChild(node))
		if err != nil {
			return dumpNode{}, err
		}
		children = append(children, rightChild)

		keys := make([]uint32, numKeys)
		for i := uint32(0); i < numKeys; i++ {
			keys[i] = pager.InternalNodeKey(node, i)
		}
		return dumpNode{Type: "internal", Page: uint32(pageNum), Keys: keys, Children: children}, nil

	default:
		return dumpNode{}, fmt.Errorf("unknown node type on page %d", pageNum)
	}
}
