package graphviz

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/lineagraph/pkg/graph"
	"github.com/matzehuels/lineagraph/pkg/layout"
)

// pointsPerInch converts between layout pixels and Graphviz inches.
const pointsPerInch = 72

// Fallback sizes for nodes the request leaves unsized.
const (
	defaultWidth  = layout.DefaultNodeWidth
	defaultHeight = layout.DefaultNodeHeight
	defaultMargin = 12
)

var rankdirs = map[string]string{
	"RIGHT": "LR",
	"LEFT":  "RL",
	"DOWN":  "TB",
	"UP":    "BT",
}

func clusterName(id string) string { return "cluster_" + id }

// ToDOT converts a native request into a DOT digraph. Container nodes become
// clusters holding an invisible anchor node named after the container, so
// edges to a container attach to its cluster boundary. Edges naming unknown
// nodes are left out.
func ToDOT(req *layout.Request) string {
	containers := make(map[string]bool)
	known := make(map[string]bool)
	indexTree(req.Children, known, containers)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(req.LayoutOptions["elk.direction"]))
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  nodesep=0.55;\n")
	buf.WriteString("  ranksep=0.85;\n")
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	writeNodes(&buf, req.Children, "  ")

	buf.WriteString("\n")
	for _, e := range req.Edges {
		if len(e.Sources) == 0 || len(e.Targets) == 0 {
			continue
		}
		src, dst := e.Sources[0], e.Targets[0]
		if !known[src] || !known[dst] {
			continue
		}
		attrs := []string{"id=" + strconv.Quote(e.ID)}
		if containers[src] {
			attrs = append(attrs, "ltail="+strconv.Quote(clusterName(src)))
		}
		if containers[dst] {
			attrs = append(attrs, "lhead="+strconv.Quote(clusterName(dst)))
		}
		if len(e.Labels) > 0 && e.Labels[0].Text != "" {
			attrs = append(attrs, "label="+strconv.Quote(e.Labels[0].Text))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", src, dst, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func indexTree(nodes []layout.NativeNode, known, containers map[string]bool) {
	for _, n := range nodes {
		known[n.ID] = true
		if len(n.Children) > 0 {
			containers[n.ID] = true
			indexTree(n.Children, known, containers)
		}
	}
}

func writeNodes(buf *bytes.Buffer, nodes []layout.NativeNode, indent string) {
	for _, n := range nodes {
		if len(n.Children) == 0 {
			w, h := orDefault(n.Width, defaultWidth), orDefault(n.Height, defaultHeight)
			fmt.Fprintf(buf, "%s%q [width=%s, height=%s];\n", indent, n.ID, inches(w), inches(h))
			continue
		}
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, clusterName(n.ID))
		fmt.Fprintf(buf, "%s  margin=%s;\n", indent, fmtNum(margin(n.LayoutOptions["elk.padding"])))
		fmt.Fprintf(buf, "%s  %q [shape=point, style=invis, width=0.01, height=0.01];\n", indent, n.ID)
		writeNodes(buf, n.Children, indent+"  ")
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func rankdir(elkDirection string) string {
	if rd, ok := rankdirs[strings.ToUpper(elkDirection)]; ok {
		return rd
	}
	return rankdirs[strings.ToUpper(string(graph.DefaultDirection))]
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func inches(px float64) string { return fmtNum(px / pointsPerInch) }

func fmtNum(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

var paddingRe = regexp.MustCompile(`(top|left|bottom|right)=([0-9.]+)`)

// margin reduces an ELK padding spec to the single cluster margin Graphviz
// supports: the largest side.
func margin(padding string) float64 {
	m := 0.0
	for _, match := range paddingRe.FindAllStringSubmatch(padding, -1) {
		if v, err := strconv.ParseFloat(match[2], 64); err == nil && v > m {
			m = v
		}
	}
	if m == 0 {
		return defaultMargin
	}
	return m
}
