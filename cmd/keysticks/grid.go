package main

// ============================================================================
// Grid Navigation
// ============================================================================
// Resolves the cell reached by moving from a cell in a direction, for each of
// the grid topologies a control set can use. Everything here is a pure lookup
// over the static tables in grid_tables.go; unknown cells and directions
// resolve to NoneID.
// ============================================================================

// Resolve returns the cell reached from cell by moving in dir, or NoneID.
func Resolve(cell int, dir LRUDState, grid GridType, wrap bool) int {
	switch grid {
	case GridKeyboard:
		return resolveComposed(cell, dir, wrap, keyboardStep)
	case GridActionStrip:
		return ResolveInStrip(cell, dir, wrap, 0)
	case GridSquare4x4:
		return plusStep(cell, dir, wrap)
	case GridSquare8x4:
		return resolveComposed(cell, dir, wrap, squareStep)
	}
	return NoneID
}

// ResolveInStrip moves along an action strip. numCells is the number of cells
// on the current page; zero means the page does not list its cells and the
// strip maximum applies.
func ResolveInStrip(cell int, dir LRUDState, wrap bool, numCells int) int {
	maxID := ActionStripMaxCells
	if numCells > 0 {
		maxID = numCells
	}
	if cell < 1 || cell > maxID {
		return NoneID
	}

	switch dir {
	case LRUDLeft, LRUDUp:
		if cell > 1 {
			return cell - 1
		}
		if wrap {
			return maxID
		}
	case LRUDRight, LRUDDown:
		if cell < maxID {
			return cell + 1
		}
		if wrap {
			return 1
		}
	}
	return NoneID
}

// resolveComposed applies step for orthogonal directions and composes the
// vertical leg then the horizontal leg for diagonals.
func resolveComposed(cell int, dir LRUDState, wrap bool, step func(int, LRUDState, bool) int) int {
	if !dir.IsDiagonal() {
		return step(cell, dir, wrap)
	}
	mid := step(cell, dir.Vertical(), wrap)
	if mid == NoneID {
		return NoneID
	}
	return step(mid, dir.Horizontal(), wrap)
}

func keyboardStep(cell int, dir LRUDState, wrap bool) int {
	var table *[numKeyboardKeys]KeyboardKey
	switch dir {
	case LRUDLeft:
		table = pick(wrap, &keyLeftWrap, &keyLeftNoWrap)
	case LRUDRight:
		table = pick(wrap, &keyRightWrap, &keyRightNoWrap)
	case LRUDUp:
		table = pick(wrap, &keyUpWrap, &keyUpNoWrap)
	case LRUDDown:
		table = pick(wrap, &keyDownWrap, &keyDownNoWrap)
	default:
		return NoneID
	}
	if cell <= 0 || cell >= len(table) {
		return NoneID
	}
	return int(table[cell])
}

func squareStep(cell int, dir LRUDState, wrap bool) int {
	var table *[9]int
	switch dir {
	case LRUDLeft:
		table = pick(wrap, &squareLeftWrap, &squareLeftNoWrap)
	case LRUDRight:
		table = pick(wrap, &squareRightWrap, &squareRightNoWrap)
	case LRUDUp:
		table = pick(wrap, &squareUpWrap, &squareUpNoWrap)
	case LRUDDown:
		table = pick(wrap, &squareDownWrap, &squareDownNoWrap)
	default:
		return NoneID
	}
	idx := cell - TopLeftCellID
	if idx < 0 || idx >= len(table) {
		return NoneID
	}
	return table[idx]
}

// plusStep navigates the five cell plus grid (TC, CL, C, CR, BC). Moves that
// would leave the plus are redirected to the member adjacent to the request.
func plusStep(cell int, dir LRUDState, wrap bool) int {
	var next int
	switch cell {
	case CentreCellID:
		if dir.IsDiagonal() {
			dir = dir.Vertical()
		}
		next = squareStep(cell, dir, wrap)

	case CentreLeftCellID, CentreRightCellID:
		switch {
		case dir == LRUDLeft || dir == LRUDRight:
			next = squareStep(cell, dir, wrap)
		case dir.Vertical() == LRUDUp:
			next = TopCentreCellID
		case dir.Vertical() == LRUDDown:
			next = BottomCentreCellID
		}

	case TopCentreCellID, BottomCentreCellID:
		switch {
		case dir == LRUDUp || dir == LRUDDown:
			next = squareStep(cell, dir, wrap)
		case dir.Horizontal() == LRUDLeft:
			next = CentreLeftCellID
		case dir.Horizontal() == LRUDRight:
			next = CentreRightCellID
		}
	}

	if !isPlusCell(next) {
		return NoneID
	}
	return next
}

func isPlusCell(cell int) bool {
	switch cell {
	case TopCentreCellID, CentreLeftCellID, CentreCellID, CentreRightCellID, BottomCentreCellID:
		return true
	}
	return false
}

// isGridCell reports whether cell is a valid member of grid.
func isGridCell(cell int, grid GridType) bool {
	switch grid {
	case GridKeyboard:
		return cell > 0 && cell < int(numKeyboardKeys)
	case GridActionStrip:
		return cell >= 1 && cell <= ActionStripMaxCells
	case GridSquare4x4:
		return isPlusCell(cell)
	case GridSquare8x4:
		return cell >= TopLeftCellID && cell <= BottomRightCellID
	}
	return false
}

// defaultGridCell is the cell selected when a state leaves the cell unspecified.
func defaultGridCell(grid GridType) int {
	switch grid {
	case GridKeyboard:
		return int(KeyA)
	case GridActionStrip:
		return 1
	case GridSquare4x4, GridSquare8x4:
		return CentreCellID
	}
	return DefaultID
}

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
