package scheduler

// floorDiv 向负无穷取整，保证剩余班次为负数时不会出现小数个员工
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod 的结果总是落在 [0, b)
func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
