//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"log/slog"
	"machine"

	"tinygo.org/x/drivers/hd44780"

	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/rig"
	"github.com/itohio/godatalog/pkg/sample"
)

var uart = machine.UART0

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelWarn}))

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{SDA: PIN_SDA, SCL: PIN_SCL, Frequency: I2C_FREQUENCY}); err != nil {
		logger.Error("i2c configure", "error", err)
	}
	bus := &i2cBus{i2c}

	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE, TX: PIN_UART_TX, RX: PIN_UART_RX})

	machine.InitADC()
	adc := machine.ADC{Pin: PIN_SENSOR}
	adc.Configure(machine.ADCConfig{})

	lcd, err := hd44780.NewGPIO4Bit(PIN_LCD_DATA, PIN_LCD_E, PIN_LCD_RS, machine.NoPin)
	if err != nil {
		logger.Error("lcd init", "error", err)
	}
	lcd.Configure(hd44780.Config{Width: display.Width, Height: display.Height})

	var rows [4]keypad.OutputPin
	for i, p := range PIN_KEY_ROWS {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.High()
		rows[i] = p
	}
	var cols [3]keypad.InputPin
	for i, p := range PIN_KEY_COLS {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		cols[i] = p
	}

	r, err := rig.New(rig.Parts{
		Bus:         bus,
		EEPROMBase:  eeprom.BaseAddress,
		ADC:         sample.Narrow{ADC: adc, Bits: sample.PicoLM35.ResolutionBits},
		Calibration: sample.PicoLM35,
		Text:        &lcdText{&lcd},
		Segments:    display.NewMux(bus, display.MuxAddress),
		Out:         uart,
		Keys: keypad.Sources{
			keypad.NewDebouncer(keypad.NewMatrix(rows, cols)),
			uartKeys{uart},
		},
		Logger: logger,
	})
	if err != nil {
		logger.Error("assemble", "error", err)
		return
	}

	r.Loop.Run(context.Background())
}

// i2cBus adapts a machine I2C port to single-transaction reads and writes.
type i2cBus struct {
	*machine.I2C
}

func (b *i2cBus) WriteBytes(addr byte, value []byte) error {
	return b.Tx(uint16(addr), value, nil)
}

func (b *i2cBus) ReadBytes(addr byte, num int) ([]byte, error) {
	buf := make([]byte, num)
	if err := b.Tx(uint16(addr), nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

type lcdText struct {
	dev *hd44780.Device
}

func (t *lcdText) Clear() { t.dev.ClearDisplay() }

func (t *lcdText) SetCursor(col, row int) { t.dev.SetCursor(uint8(col), uint8(row)) }

func (t *lcdText) Print(s string) {
	t.dev.Write([]byte(s))
	t.dev.Display()
}

// uartKeys reads keypad characters typed on the remote terminal.
type uartKeys struct {
	uart *machine.UART
}

func (u uartKeys) Next() (keypad.Key, bool) {
	for u.uart.Buffered() > 0 {
		b, err := u.uart.ReadByte()
		if err != nil {
			break
		}
		if k, ok := keypad.Parse(b); ok {
			return k, true
		}
	}
	return keypad.None, false
}
