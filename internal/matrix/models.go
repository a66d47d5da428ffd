package matrix

import (
	"strings"
	"time"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

// Code is one entry of the analysis taxonomy. Codes form a forest through ParentID.
type Code struct {
	ID          int64     `json:"id"`
	Code        string    `json:"codigo"`
	Name        string    `json:"nombre"`
	Description *string   `json:"descripcion"`
	Category    *string   `json:"categoria"`
	ParentID    *int64    `json:"id_padre"`
	CreatedAt   time.Time `json:"created_at"`
}

type Input struct {
	Code        string  `json:"codigo"`
	Name        string  `json:"nombre"`
	Description *string `json:"descripcion"`
	Category    *string `json:"categoria"`
	ParentID    *int64  `json:"id_padre"`
}

// Node is a code with its children, as returned by the tree endpoint.
type Node struct {
	Code
	Children []*Node `json:"children"`
}

func (in Input) row() (gateway.Row, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperr.Invalid("codigo and nombre are required")
	}
	return gateway.Row{
		"codigo":      code,
		"nombre":      name,
		"descripcion": gateway.OptionalString(in.Description),
		"categoria":   gateway.OptionalString(in.Category),
		"id_padre":    in.ParentID,
	}, nil
}

func fromRow(r gateway.Row) Code {
	return Code{
		ID:          r.Int64("id"),
		Code:        r.String("codigo"),
		Name:        r.String("nombre"),
		Description: r.StringPtr("descripcion"),
		Category:    r.StringPtr("categoria"),
		ParentID:    r.Int64Ptr("id_padre"),
		CreatedAt:   r.Time("created_at"),
	}
}

// BuildTree arranges codes under their parents. Codes whose parent is not in the list
// become roots. Order within each level follows the input.
func BuildTree(codes []Code) []*Node {
	nodes := make(map[int64]*Node, len(codes))
	for _, c := range codes {
		nodes[c.ID] = &Node{Code: c, Children: []*Node{}}
	}
	roots := []*Node{}
	for _, c := range codes {
		n := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
