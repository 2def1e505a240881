package domain

// PriceWindow es un buffer circular de capacidad fija con los precios más
// recientes, en orden de inserción. Al desbordar expulsa el más antiguo
// (FIFO). No es seguro para uso concurrente: cada worker posee el suyo.
type PriceWindow struct {
	buf  []float64
	head int // índice del elemento más antiguo
	size int
}

// NewPriceWindow crea una ventana con la capacidad dada (mínimo 1).
func NewPriceWindow(capacity int) *PriceWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &PriceWindow{buf: make([]float64, capacity)}
}

// Push añade un precio, expulsando el más antiguo si la ventana está llena. O(1).
func (w *PriceWindow) Push(price float64) {
	if w.size < len(w.buf) {
		w.buf[(w.head+w.size)%len(w.buf)] = price
		w.size++
		return
	}
	w.buf[w.head] = price
	w.head = (w.head + 1) % len(w.buf)
}

// Values devuelve un snapshot en orden cronológico, independiente del
// layout interno. O(capacity).
func (w *PriceWindow) Values() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Len devuelve cuántos precios contiene la ventana.
func (w *PriceWindow) Len() int { return w.size }

// Cap devuelve la capacidad fija.
func (w *PriceWindow) Cap() int { return len(w.buf) }

// Full indica si la ventana alcanzó su capacidad.
func (w *PriceWindow) Full() bool { return w.size == len(w.buf) }

// Clear vacía la ventana. Solo se usa como válvula de alivio bajo presión
// de memoria, nunca por corrección.
func (w *PriceWindow) Clear() {
	w.head = 0
	w.size = 0
}
