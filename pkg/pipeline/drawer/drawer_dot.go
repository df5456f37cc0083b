package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/geo-pipeline/internal/store"
	"github.com/askiada/geo-pipeline/pkg/pipeline/measure"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

var stateColors = map[model.TaskState]string{
	model.PendingState: "grey",
	model.SkippedState: "darkgreen",
	model.RanState:     "blue",
	model.FailedState:  "red",
}

// DOTDrawer is a drawer that writes the task graph in the Graphviz DOT language.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	store    store.CustomStore[string, string]
	fileName string
}

// NewDOTDrawer creates a new DOT drawer writing to fileName.
func NewDOTDrawer(fileName string) *DOTDrawer {
	st := store.NewOrderedStore[string, string]()

	return &DOTDrawer{
		fileName: fileName,
		store:    st,
		graph:    graph.NewWithStore[string, string](graph.StringHash, st, graph.Directed()),
	}
}

// AddTask adds a task to the graph.
func (d *DOTDrawer) AddTask(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	return d.SetState(name, model.PendingState)
}

// AddLink adds a link between parent and child tasks.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// SetState colours the task after its state. Links leaving a skipped task are dashed.
func (d *DOTDrawer) SetState(name string, state model.TaskState) error {
	err := d.store.UpdateVertex(name,
		graph.VertexAttribute("color", stateColors[state]),
		graph.VertexAttribute("state", string(state)),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to update vertex %s", name)
	}

	if state != model.SkippedState {
		return nil
	}

	adjacencyMap, err := d.graph.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	for child := range adjacencyMap[name] {
		err := d.graph.UpdateEdge(name, child, graph.EdgeAttribute("style", "dashed"))
		if err != nil {
			return errors.Wrap(err, "unable to update edge")
		}
	}

	return nil
}

const maxRGB = 240

// AddMeasure labels every task with its duration and fills the tasks that ran with a colour going
// from blue for the fastest to red for the slowest.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	durations := []time.Duration{}

	for name, mt := range msr.AllMetrics() {
		if _, err := d.graph.Vertex(name); err != nil {
			continue
		}

		err := d.store.UpdateVertex(name, graph.VertexAttribute("xlabel", mt.Duration().String()))
		if err != nil {
			return errors.Wrapf(err, "unable to update vertex %s", name)
		}

		if mt.State() == model.RanState {
			durations = append(durations, mt.Duration())
		}
	}

	if len(durations) == 0 {
		return nil
	}

	sort.Slice(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	})

	minValue := durations[0]
	maxValue := durations[len(durations)-1]

	for name, mt := range msr.AllMetrics() {
		if mt.State() != model.RanState {
			continue
		}

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(mt.Duration()-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		fill, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		err = d.store.UpdateVertex(name,
			graph.VertexAttribute("style", "filled"),
			graph.VertexAttribute("fontcolor", "white"),
			graph.VertexAttribute("fillcolor", fill.ToHEX().String()),
		)
		if err != nil {
			return errors.Wrapf(err, "unable to update vertex %s", name)
		}
	}

	return nil
}

// Draw creates a DOT file with the pipeline graph.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = d.Render(file)
	if err != nil {
		return errors.Wrapf(err, "unable to render dot file %s", d.fileName)
	}

	return file.Close()
}

// Render writes the DOT description of the graph.
func (d *DOTDrawer) Render(wrt io.Writer) error {
	order, err := d.store.ListVertices()
	if err != nil {
		return errors.Wrap(err, "unable to list vertices")
	}

	desc, err := generateDOT(d.graph, order)
	if err != nil {
		return fmt.Errorf("failed to generate DOT description: %w", err)
	}

	return renderDOT(wrt, desc)
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

// generateDOT describes the vertices in the given order, each followed by its outgoing edges.
func generateDOT[K comparable, T any](gra graph.Graph[K, T], order []K) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for _, vertex := range order {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(sourceProperties.Attributes))
		htmlAttributes := make(map[string]string)

		for k, v := range sourceProperties.Attributes {
			switch k {
			case "state":
			case "xlabel":
				htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="10">%s</FONT>>`, vertex, v)
			default:
				attributes[k] = v
			}
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		for _, adjacency := range order {
			edge, ok := adjacencyMap[vertex][adjacency]
			if !ok {
				continue
			}

			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
