package prometheus

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	authservice "github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authservice.MetricsSnapshot
	AuditDropped() uint64
}

type label struct {
	name, value string
}

// Option customises a PrometheusExporter.
type Option func(*PrometheusExporter)

// WithConstLabel adds name="value" to every sample, for example the node
// id of the instance behind a load balancer. Later calls with the same
// name win.
func WithConstLabel(name, value string) Option {
	return func(p *PrometheusExporter) {
		for i := range p.constLabels {
			if p.constLabels[i].name == name {
				p.constLabels[i].value = value
				return
			}
		}
		p.constLabels = append(p.constLabels, label{name: name, value: value})
	}
}

// PrometheusExporter renders engine metrics as Prometheus text. Each
// sample carries a flow label (signup, login, 2fa, session or engine) so
// dashboards can split the auth funnel without matching on names.
type PrometheusExporter struct {
	source      metricsSource
	constLabels []label
}

func NewPrometheusExporter(engine *authservice.Engine, opts ...Option) *PrometheusExporter {
	return NewPrometheusExporterFromSource(engine, opts...)
}

// NewPrometheusExporterFromSource reads from any value with the Engine's
// MetricsSnapshot and AuditDropped methods.
func NewPrometheusExporterFromSource(source metricsSource, opts ...Option) *PrometheusExporter {
	p := &PrometheusExporter{source: source}
	for _, opt := range opts {
		opt(p)
	}
	sort.Slice(p.constLabels, func(i, j int) bool { return p.constLabels[i].name < p.constLabels[j].name })
	return p
}

func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. It is empty when the engine has
// metrics disabled and no audit events were dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		writeHeader(&b, def.Name, def.Help, "counter")
		writeSample(&b, def.Name, p.labels(label{"flow", def.Flow}), snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		flow := label{"flow", def.Flow}

		writeHeader(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			writeSample(&b, def.Name+"_bucket", p.labels(flow, label{"le", le}), cumulative[i])
		}
		writeSample(&b, def.Name+"_count", p.labels(flow), cumulative[len(cumulative)-1])
		// Snapshots carry bucket counts only.
		writeSample(&b, def.Name+"_sum", p.labels(flow), 0)
	}

	writeHeader(&b, "authservice_audit_dropped_total", "Audit events lost because the dispatcher buffer was full.", "counter")
	writeSample(&b, "authservice_audit_dropped_total", p.labels(), dropped)

	return b.String()
}

// labels renders {k="v",...}: the metric's own labels first, then the
// constant ones, with le always last.
func (p *PrometheusExporter) labels(own ...label) string {
	if len(own) == 0 && len(p.constLabels) == 0 {
		return ""
	}
	var le *label
	var b strings.Builder
	b.WriteByte('{')
	n := 0
	write := func(l label) {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.name)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(l.value))
		b.WriteByte('"')
		n++
	}
	for i := range own {
		if own[i].name == "le" {
			le = &own[i]
			continue
		}
		write(own[i])
	}
	for _, l := range p.constLabels {
		write(l)
	}
	if le != nil {
		write(*le)
	}
	b.WriteByte('}')
	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, labels string, value uint64) {
	b.WriteString(name)
	b.WriteString(labels)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}

func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}
