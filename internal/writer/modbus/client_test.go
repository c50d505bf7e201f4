// internal/writer/modbus/client_test.go
package modbus

import "testing"

func TestPackRegistersBigEndian(t *testing.T) {
	got := packRegisters([]uint16{0x0102, 0xEA60})
	want := []byte{0x01, 0x02, 0xEA, 0x60}
	if string(got) != string(want) {
		t.Fatalf("packRegisters: got=%v want=%v", got, want)
	}
}

func TestNewEndpointClientRequiresEndpoint(t *testing.T) {
	if _, err := NewEndpointClient(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}

	c, err := NewEndpointClient(Config{Endpoint: "127.0.0.1:502"})
	if err != nil {
		t.Fatalf("lazy client should not dial: %v", err)
	}
	if c.handler.Timeout != defaultTimeout {
		t.Fatalf("default timeout not applied: %v", c.handler.Timeout)
	}
	_ = c.Close()
}
