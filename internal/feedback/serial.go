package feedback

import (
	"github.com/mdobak/go-xerrors"
	"go.bug.st/serial"
)

const DefaultBaud = 500000

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, xerrors.New("serial open "+name, err)
	}
	return p, nil
}

// SerialPorts lists candidate device names.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, xerrors.New("serial list", err)
	}
	return ports, nil
}
