package cache

import (
	"testing"
	"time"
)

func TestTTLGetSetExpire(t *testing.T) {
	c := New(30 * time.Millisecond)
	c.Set("a", []byte("1"))
	if got := c.Get("a"); string(got) != "1" {
		t.Fatalf("Get = %q", got)
	}
	time.Sleep(50 * time.Millisecond)
	if got := c.Get("a"); got != nil {
		t.Fatalf("entrada expirada ainda presente: %q", got)
	}
}

func TestTTLDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("packages:u1", []byte("x"))
	c.Set("packages:u2", []byte("y"))
	c.Set("sessions:u1", []byte("z"))
	c.DeletePrefix("packages:")
	if c.Get("packages:u1") != nil || c.Get("packages:u2") != nil {
		t.Error("DeletePrefix não removeu as chaves do prefixo")
	}
	if c.Get("sessions:u1") == nil {
		t.Error("DeletePrefix removeu chave fora do prefixo")
	}
}
