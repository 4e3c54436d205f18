package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// flagKeys はフラグ名と設定キーの対応
var flagKeys = []struct {
	flag, key, usage string
}{
	{"input", "input.path", "JSON lines input file (- for stdin)"},
	{"model", "model.kind", "model to train: alma or softmax"},
	{"scale", "model.scale", "feature scaling: none, standard or minmax"},
	{"alma-p", "model.alma.p", "ALMA p-norm order"},
	{"alma-alpha", "model.alma.alpha", "ALMA approximation parameter"},
	{"alma-projection", "model.alma.projection", "ALMA projection scope: touched or all"},
	{"optimizer", "model.softmax.optimizer.kind", "softmax optimizer: sgd, adagrad or ftrl"},
	{"lr", "model.softmax.optimizer.lr", "learning rate for sgd and adagrad"},
	{"l2", "model.softmax.l2", "softmax L2 penalty"},
	{"drift", "eval.drift", "drift detector: none, ddm or adwin"},
	{"print-every", "eval.print_every", "log progress every n samples (0 disables)"},
	{"curve-every", "eval.curve_every", "record a learning-curve point every n samples (0 disables)"},
	{"plot", "eval.plot_path", "write the learning curve to this .png/.svg/.pdf file"},
	{"metrics-addr", "metrics.addr", "serve Prometheus metrics on this address"},
	{"log-level", "log.level", "debug, info, warn or error"},
	{"log-format", "log.format", "zerolog or json"},
}

// RegisterFlags は fs にフラグを定義して v のキーに束縛する。
// フラグの既定値は SetDefaults の値になる。
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	SetDefaults(v)
	for _, f := range flagKeys {
		switch def := v.Get(f.key).(type) {
		case string:
			fs.String(f.flag, def, f.usage)
		case float64:
			fs.Float64(f.flag, def, f.usage)
		case int:
			fs.Int64(f.flag, int64(def), f.usage)
		default:
			return errors.Newf("config: unsupported default %T for %s", def, f.key)
		}
		if err := v.BindPFlag(f.key, fs.Lookup(f.flag)); err != nil {
			return errors.Wrapf(err, "bind flag %s", f.flag)
		}
	}
	return nil
}
