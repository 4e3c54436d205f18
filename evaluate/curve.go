package evaluate

import (
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// Point は学習曲線上の1点
type Point struct {
	Step    int64         // それまでに評価したサンプル数
	Value   float64       // その時点の指標値
	Elapsed time.Duration // 評価開始からの経過時間
}

// Curve は一定間隔で記録した指標の推移
type Curve struct {
	Metric string
	Points []Point
}

// Add は点を追加する
func (c *Curve) Add(step int64, value float64, elapsed time.Duration) {
	c.Points = append(c.Points, Point{Step: step, Value: value, Elapsed: elapsed})
}

// Len は記録した点の数を返す
func (c *Curve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Points)
}

// XY implements plotter.XYer.
func (c *Curve) XY(i int) (float64, float64) {
	return float64(c.Points[i].Step), c.Points[i].Value
}

var supportedPlotFormats = map[string]struct{}{
	".png": {}, ".svg": {}, ".pdf": {}, ".eps": {}, ".jpg": {}, ".jpeg": {}, ".tif": {}, ".tiff": {},
}

// SavePlot は学習曲線を画像として保存する。形式は拡張子で決まる。
func (c *Curve) SavePlot(path string) error {
	if c.Len() == 0 {
		return errors.NewModelError("Curve.SavePlot", "empty curve", nil)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedPlotFormats[ext]; !ok {
		return errors.NewValidationError("plot_path", "unsupported image format", ext)
	}

	p := plot.New()
	p.Title.Text = c.Metric + " (progressive validation)"
	p.X.Label.Text = "samples"
	p.Y.Label.Text = c.Metric
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(c)
	if err != nil {
		return errors.Wrap(err, "failed to build learning curve line")
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}
