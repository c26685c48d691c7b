package tree

import (
	"fmt"
	"io"
	"strings"
)

type dotNodeIDs[K, V any] struct {
	idTable map[RBNode[K, V]]int
	max     int
}

func (ids *dotNodeIDs[K, V]) alloc(node RBNode[K, V]) int {
	if id, ok := ids.idTable[node]; ok {
		return id
	}
	ids.max++
	ids.idTable[node] = ids.max
	return ids.max
}

// RBTree2Dot outputs the internal structure of a tree in Graphviz DOT
// format (for debugging purposes). NIL leaves are drawn as small black
// points.
func RBTree2Dot[K, V any](tree RBTree[K, V], w io.Writer) error {
	ids := &dotNodeIDs[K, V]{idTable: make(map[RBNode[K, V]]int, tree.Len())}
	nodelist, edgelist := strings.Builder{}, strings.Builder{}
	nilID := 0

	var walk func(node RBNode[K, V])
	walk = func(node RBNode[K, V]) {
		id := ids.alloc(node)
		nodelist.WriteString(fmt.Sprintf("\t\"%d\" [label=\"%v\"%s];\n", id, node.Key(), dotNodeStyles(node.Color())))
		for _, child := range []RBNode[K, V]{node.Left(), node.Right()} {
			if child == nil {
				nilID--
				nodelist.WriteString(fmt.Sprintf("\t\"%d\" %s;\n", nilID, dotNilLeaf()))
				edgelist.WriteString(fmt.Sprintf("\t\"%d\" -> \"%d\";\n", id, nilID))
				continue
			}
			edgelist.WriteString(fmt.Sprintf("\t\"%d\" -> \"%d\";\n", id, ids.alloc(child)))
			walk(child)
		}
	}
	if root := tree.Root(); root != nil {
		walk(root)
	}

	_, err := io.WriteString(w, "strict digraph {\n"+
		"\tnode [fontname=Arial,fontsize=12];\n"+
		nodelist.String()+
		edgelist.String()+
		"}\n")
	return err
}

func dotNilLeaf() string {
	return "[label=\"\",style=filled,color=black,fillcolor=black,shape=point,width=.1]"
}

func dotNodeStyles(color RBColor) string {
	s := ",style=filled,shape=circle"
	if color == Red {
		return s + ",color=red,fillcolor=red,fontcolor=white"
	}
	return s + ",color=black,fillcolor=black,fontcolor=white"
}
