// Package hal supplies host-side implementations of the kernel's platform
// interfaces: a goroutine-backed port, a simulated low-power sleeper for
// tickless idle, a structured logger, and a wall-clock tick driver.
package hal
