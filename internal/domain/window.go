package domain

import "time"

// WindowSeconds es el tamaño de la ventana de los mercados updown: 15 minutos.
const WindowSeconds = 900

// WindowStart devuelve el inicio (epoch Unix) de la ventana que contiene now.
func WindowStart(now time.Time) int64 {
	return (now.Unix() / WindowSeconds) * WindowSeconds
}

// WindowEpoch devuelve el epoch de la ventana actual desplazada offset ventanas.
// offset=0 es la ventana en curso, offset=1 la siguiente.
func WindowEpoch(now time.Time, offset int) int64 {
	return WindowStart(now) + int64(offset)*WindowSeconds
}
