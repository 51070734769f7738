package repository

import "errors"

// ErrSlotConflict is returned by appointment writes that collide with another
// booked appointment on the same (doctor, clinic, date, slot).
var ErrSlotConflict = errors.New("slot already has a booked appointment")
