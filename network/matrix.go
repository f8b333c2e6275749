package network

import "gonum.org/v1/gonum/mat"

// Dense matrix surgery helpers. gonum views cannot express "all but one
// row/column", so these rebuild the backing data instead.

func removeRow(m *mat.Dense, row int) *mat.Dense {
	rows, cols := m.Dims()
	data := make([]float64, 0, (rows-1)*cols)
	for i := 0; i < rows; i++ {
		if i == row {
			continue
		}
		data = append(data, m.RawRowView(i)...)
	}
	return mat.NewDense(rows-1, cols, data)
}

func removeCol(m *mat.Dense, col int) *mat.Dense {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*(cols-1))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j == col {
				continue
			}
			data = append(data, m.At(i, j))
		}
	}
	return mat.NewDense(rows, cols-1, data)
}

func removeVecElem(v *mat.VecDense, i int) *mat.VecDense {
	data := make([]float64, 0, v.Len()-1)
	for j := 0; j < v.Len(); j++ {
		if j == i {
			continue
		}
		data = append(data, v.AtVec(j))
	}
	return mat.NewVecDense(len(data), data)
}

func pickRows(m *mat.Dense, rows []int) *mat.Dense {
	_, cols := m.Dims()
	data := make([]float64, 0, len(rows)*cols)
	for _, i := range rows {
		data = append(data, m.RawRowView(i)...)
	}
	return mat.NewDense(len(rows), cols, data)
}

func pickCols(m *mat.Dense, cols []int) *mat.Dense {
	rows, _ := m.Dims()
	data := make([]float64, 0, rows*len(cols))
	for i := 0; i < rows; i++ {
		for _, j := range cols {
			data = append(data, m.At(i, j))
		}
	}
	return mat.NewDense(rows, len(cols), data)
}

func pickVecElems(v *mat.VecDense, idx []int) *mat.VecDense {
	data := make([]float64, len(idx))
	for i, j := range idx {
		data[i] = v.AtVec(j)
	}
	return mat.NewVecDense(len(data), data)
}
