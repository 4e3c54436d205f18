package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/YuminosukeSato/streamlin/core/model"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// maxLineSize は1行 (1サンプル) あたりの上限
const maxLineSize = 16 << 20

// record は入力1行の形式: {"x": {"feature": value, ...}, "y": label}
type record struct {
	X map[string]float64 `json:"x"`
	Y json.RawMessage    `json:"y"`
}

// labelParser は JSON のラベル値を L に変換する
type labelParser[L comparable] func(raw json.RawMessage) (L, error)

// parseBoolLabel は true/false、数値 (正なら true)、"true"/"1" などの文字列を受け付ける
func parseBoolLabel(raw json.RawMessage) (bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	switch y := v.(type) {
	case bool:
		return y, nil
	case float64:
		return y > 0, nil
	case string:
		return strconv.ParseBool(y)
	default:
		return false, errors.Newf("label %s is not a boolean", string(raw))
	}
}

// parseStringLabel は文字列はそのまま、数値と真偽値は JSON の表記をラベルにする
func parseStringLabel(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch y := v.(type) {
	case string:
		return y, nil
	case float64, bool:
		return string(bytes.TrimSpace(raw)), nil
	default:
		return "", errors.Newf("label %s is not a scalar", string(raw))
	}
}

// decodeLine は1行を Example に変換する
func decodeLine[L comparable](line []byte, parse labelParser[L]) (model.Example[L], error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.Example[L]{}, errors.NewInvalidInputError("decode", "", string(line), err.Error())
	}
	if len(rec.Y) == 0 || string(rec.Y) == "null" {
		return model.Example[L]{}, errors.NewInvalidInputError("decode", "y", nil, "label is missing")
	}
	y, err := parse(rec.Y)
	if err != nil {
		return model.Example[L]{}, errors.NewInvalidInputError("decode", "y", string(rec.Y), err.Error())
	}
	if rec.X == nil {
		rec.X = model.Features{}
	}
	return model.Example[L]{X: rec.X, Y: y}, nil
}

// readExamples は r を JSON lines として読み、out に送る。空行は飛ばす。
// 終了時には必ず out を閉じる。
func readExamples[L comparable](ctx context.Context, r io.Reader, parse labelParser[L], out chan<- model.Example[L]) error {
	defer close(out)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		ex, err := decodeLine(line, parse)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
		select {
		case out <- ex:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "read input after line %d", lineNo)
	}
	return nil
}

// openInput は path を開く。空か "-" なら stdin を使い、close は何もしない。
func openInput(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open input %s", path)
	}
	return f, f.Close, nil
}
