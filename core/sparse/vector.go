// Package sparse provides the implicit-zero feature vector shared by every
// optimizer and model in streamlin.
package sparse

import (
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// Vector は文字列キーから float64 への疎ベクトル
//
// 存在しないキーは 0 として扱われる。キーは最初の書き込みで作成され、
// 以後削除されることはない。反復は挿入順で行われるため、同じ入力列に対して
// 内積やノルムの結果はビット単位で再現される。
type Vector struct {
	keys   []string
	index  map[string]int
	values []float64
}

// New は空のVectorを作成する
func New() *Vector {
	return &Vector{index: make(map[string]int)}
}

// FromMap はマップからVectorを作成する。キーはソート順に挿入される。
func FromMap(m map[string]float64) *Vector {
	v := &Vector{
		keys:   make([]string, 0, len(m)),
		index:  make(map[string]int, len(m)),
		values: make([]float64, 0, len(m)),
	}
	for _, k := range SortedKeys(m) {
		v.Set(k, m[k])
	}
	return v
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// Len は格納されているキーの数を返す
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Get はキーの値を返す。存在しない場合は 0 を返し、キーは作成しない。
func (v *Vector) Get(key string) float64 {
	val, _ := v.Lookup(key)
	return val
}

// Lookup はキーの値と、そのキーが存在するかどうかを返す
func (v *Vector) Lookup(key string) (float64, bool) {
	if v == nil {
		return 0, false
	}
	i, ok := v.index[key]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Has reports whether key has been written at least once.
func (v *Vector) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// Set はキーに値を書き込む。新しいキーは末尾に追加される。
func (v *Vector) Set(key string, value float64) {
	if i, ok := v.index[key]; ok {
		v.values[i] = value
		return
	}
	v.index[key] = len(v.keys)
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}

// Add はキーの値に delta を加算する
func (v *Vector) Add(key string, delta float64) {
	if i, ok := v.index[key]; ok {
		v.values[i] += delta
		return
	}
	v.Set(key, delta)
}

// Scale は全要素を f 倍する
func (v *Vector) Scale(f float64) {
	floats.Scale(f, v.values)
}

// Dot は内積を計算する。レシーバの挿入順に反復する。
func (v *Vector) Dot(other *Vector) float64 {
	if v.Len() == 0 || other.Len() == 0 {
		return 0
	}
	var sum float64
	for i, k := range v.keys {
		if ov, ok := other.Lookup(k); ok {
			sum += v.values[i] * ov
		}
	}
	return sum
}

// Norm は order 次のノルムを計算する
//
//   - order = +Inf: 絶対値の最大値
//   - order = 2: ユークリッドノルム
//   - その他: (Σ|v_i|^order)^(1/order)
//
// 空のベクトルのノルムは 0。
func (v *Vector) Norm(order float64) float64 {
	if v.Len() == 0 {
		return 0
	}
	if math.IsInf(order, 1) {
		var m float64
		for _, x := range v.values {
			if a := math.Abs(x); a > m {
				m = a
			}
		}
		return m
	}
	return floats.Norm(v.values, order)
}

// Keys returns a copy of the keys in insertion order.
func (v *Vector) Keys() []string {
	if v == nil {
		return nil
	}
	return slices.Clone(v.keys)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (v *Vector) Range(fn func(key string, value float64) bool) {
	if v == nil {
		return
	}
	for i, k := range v.keys {
		if !fn(k, v.values[i]) {
			return
		}
	}
}

// Clone はディープコピーを作成する
func (v *Vector) Clone() *Vector {
	if v == nil {
		return New()
	}
	return &Vector{
		keys:   slices.Clone(v.keys),
		index:  maps.Clone(v.index),
		values: slices.Clone(v.values),
	}
}

// ToMap はVectorをマップに変換する
func (v *Vector) ToMap() map[string]float64 {
	m := make(map[string]float64, v.Len())
	v.Range(func(k string, x float64) bool {
		m[k] = x
		return true
	})
	return m
}

// DotMap は m との内積を計算する。m のキーはソート順に反復する。
func (v *Vector) DotMap(m map[string]float64) float64 {
	if v.Len() == 0 || len(m) == 0 {
		return 0
	}
	return v.DotSorted(SortedKeys(m), m)
}

// DotSorted は keys の順に m との内積を計算する。keys は SortedKeys(m)。
func (v *Vector) DotSorted(keys []string, m map[string]float64) float64 {
	var sum float64
	for _, k := range keys {
		if wv, ok := v.Lookup(k); ok {
			sum += wv * m[k]
		}
	}
	return sum
}
