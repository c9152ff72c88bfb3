package tfidf

import "math"

// Vector 是按词表下标升序排列的稀疏向量。
type Vector struct {
	Indices []int
	Values  []float64
}

// Len 返回非零分量的数量。
func (v Vector) Len() int {
	return len(v.Indices)
}

// IsZero 判断是否为零向量。
func (v Vector) IsZero() bool {
	return v.Norm() == 0
}

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dot 计算两个稀疏向量的点积，按下标顺序归并，保证求和顺序固定。
func Dot(a, b Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Cosine 计算余弦相似度，任一向量范数为 0 时返回 0。
func Cosine(a, b Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	sim := Dot(a, b) / (na * nb)
	// 浮点误差可能让结果略微越界
	if sim > 1 {
		sim = 1
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}

func (v Vector) normalized() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	out := Vector{Indices: v.Indices, Values: make([]float64, len(v.Values))}
	for i, x := range v.Values {
		out.Values[i] = x / n
	}
	return out
}
