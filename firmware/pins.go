//go:build tinygo

package main

import "machine"

const (
	UART_BAUD_RATE = 9600
	I2C_FREQUENCY  = 100_000

	// I2C bus
	PIN_SDA = machine.GP4
	PIN_SCL = machine.GP5

	// Export and remote keys
	PIN_UART_TX = machine.GP0
	PIN_UART_RX = machine.GP1

	// LM35 output
	PIN_SENSOR = machine.ADC0

	// HD44780 in 4-bit mode, write only
	PIN_LCD_E  = machine.GP10
	PIN_LCD_RS = machine.GP11
)

var (
	PIN_LCD_DATA = []machine.Pin{machine.GP6, machine.GP7, machine.GP8, machine.GP9}

	// Keypad matrix, rows driven low one at a time, columns pulled up
	PIN_KEY_ROWS = [4]machine.Pin{machine.GP12, machine.GP13, machine.GP14, machine.GP15}
	PIN_KEY_COLS = [3]machine.Pin{machine.GP16, machine.GP17, machine.GP18}
)
