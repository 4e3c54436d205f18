// Command streamlin trains an online classifier on a JSON lines stream with
// progressive validation: each line is first predicted and then learned.
//
// Usage:
//
//	streamlin --model alma --input data.jsonl --drift ddm --plot curve.png
//	cat data.jsonl | streamlin --model softmax --optimizer adagrad --lr 0.1
//
// Each line has the form {"x": {"feature": value, ...}, "y": label}.
// Settings may also come from a config file (--config) or STREAMLIN_*
// environment variables, e.g. STREAMLIN_MODEL_KIND=softmax.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/evaluate"
	"github.com/YuminosukeSato/streamlin/metrics"
	"github.com/YuminosukeSato/streamlin/pkg/config"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
	"github.com/YuminosukeSato/streamlin/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "streamlin: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("streamlin", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.StringP("config", "c", "", "config file (yaml, json or toml)")

	v := viper.New()
	if err := config.RegisterFlags(fs, v); err != nil {
		return err
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	conf, err := config.Load(*configPath, v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(conf.Log, stderr)
	if err != nil {
		return err
	}

	in, closeInput, err := openInput(conf.Input.Path, stdin)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInput(); cerr != nil {
			logger.Warn("close input", log.ErrAttrKey, cerr.Error())
		}
	}()

	switch conf.Model.Kind {
	case "alma":
		m, err := config.NewALMA(conf.Model.ALMA)
		if err != nil {
			return err
		}
		return serve[bool](ctx, conf, logger, "ALMAClassifier", m, in, parseBoolLabel, stdout)
	case "softmax":
		m, err := config.NewSoftmax(conf.Model.Softmax)
		if err != nil {
			return err
		}
		return serve[string](ctx, conf, logger, "SoftmaxRegression", m, in, parseStringLabel, stdout)
	default:
		return errors.NewValidationError("model.kind", "unknown model", conf.Model.Kind)
	}
}

// serve は入力の読み込み、評価、/metrics サーバーを errgroup で同時に動かし、
// 評価が終わったら結果を stdout に書く
func serve[L comparable](
	ctx context.Context,
	conf *config.Config,
	logger log.Logger,
	name string,
	m model.Classifier[L],
	in io.Reader,
	parse labelParser[L],
	stdout io.Writer,
) error {
	collector := evaluate.NewCollector(name)
	opts := []evaluate.Option{
		evaluate.WithLogger(logger),
		evaluate.WithModelName(name),
		evaluate.WithPrintEvery(conf.Eval.PrintEvery),
		evaluate.WithCurveEvery(conf.Eval.CurveEvery),
		evaluate.WithCollector(collector),
	}
	detector, err := config.NewDetector(conf.Eval.Drift)
	if err != nil {
		return err
	}
	if detector != nil {
		opts = append(opts, evaluate.WithDriftDetector(detector))
	}
	transformer, err := config.NewTransformer(conf.Model.Scale)
	if err != nil {
		return err
	}
	if transformer != nil {
		opts = append(opts, evaluate.WithTransformer(transformer))
	}
	ms := []metrics.Metric[L]{metrics.NewAccuracy[L](), metrics.NewLogLoss[L]()}

	g, gctx := errgroup.WithContext(ctx)
	examples := make(chan model.Example[L], 256)
	done := make(chan struct{})
	var report *evaluate.Report[L]

	g.Go(func() error {
		return readExamples(gctx, in, parse, examples)
	})
	g.Go(func() error {
		defer close(done)
		r, err := evaluate.ProgressiveValScore(gctx, m, examples, ms, opts...)
		report = r
		return err
	})
	if conf.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: conf.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("serving metrics", "addr", conf.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-done:
			case <-gctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintln(stdout, report.String())
	fmt.Fprintf(stdout, "mistakes: %d/%d  macro-F1: %.4f  elapsed: %s\n",
		report.Mistakes, report.Scored, report.Confusion.MacroF1(), report.Duration.Round(time.Millisecond))
	fmt.Fprint(stdout, report.Confusion.String())

	if path := conf.Eval.PlotPath; path != "" {
		if report.Curve.Len() == 0 {
			logger.Warn("no learning-curve points recorded, plot skipped", "path", path)
			return nil
		}
		if err := report.Curve.SavePlot(path); err != nil {
			return err
		}
		logger.Info("learning curve written", "path", path, "points", report.Curve.Len())
	}
	return nil
}
