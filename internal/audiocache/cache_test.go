package audiocache

import (
	"bytes"
	"testing"
	"time"
)

func TestKey_ContentAddressed(t *testing.T) {
	k1 := Key("hello world", "voice-a")
	k2 := Key("hello world", "voice-a")
	if k1 != k2 {
		t.Fatalf("identical (text, voice) produced different keys: %q vs %q", k1, k2)
	}
}

func TestKey_DistinguishesVoiceAndText(t *testing.T) {
	base := Key("hello", "voice-a")
	if Key("hello", "voice-b") == base {
		t.Error("different voices should produce different keys")
	}
	if Key("goodbye", "voice-a") == base {
		t.Error("different texts should produce different keys")
	}
	// The separator prevents (text, voice) boundary ambiguity.
	if Key("ab", "c") == Key("b", "ca") {
		t.Error("shifted text/voice boundary should produce different keys")
	}
}

func TestCache_PutGet(t *testing.T) {
	c := New(time.Hour)
	key := Key("chunk one", "v1")

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss before put")
	}

	audio := []byte{0x49, 0x44, 0x33} // mp3-ish header bytes
	c.Put(key, audio)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("expected %v, got %v", audio, got)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestCache_SecondPutSameKeyIsSingleEntry(t *testing.T) {
	c := New(time.Hour)
	key := Key("same chunk", "v1")
	c.Put(key, []byte("audio"))
	c.Put(key, []byte("audio"))
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry for identical (text, voice), got %d", c.Len())
	}
}

func TestCache_ExpiredEntryActsAbsent(t *testing.T) {
	c := New(10 * time.Millisecond)
	key := Key("ephemeral", "v1")
	c.Put(key, []byte("audio"))

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Fatal("expected expired entry to act as absent")
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New(0)
	key := Key("persistent", "v1")
	c.Put(key, []byte("audio"))

	time.Sleep(15 * time.Millisecond)

	if _, ok := c.Get(key); !ok {
		t.Fatal("expected entry to survive with zero TTL")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := New(5 * time.Millisecond)
	c.Put(Key("a", "v"), []byte("1"))
	c.Put(Key("b", "v"), []byte("2"))

	time.Sleep(15 * time.Millisecond)
	c.Cleanup()

	if c.Len() != 0 {
		t.Fatalf("expected 0 entries after cleanup, got %d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(time.Hour)
	key := Key("gone", "v1")
	c.Put(key, []byte("audio"))
	c.Delete(key)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss after delete")
	}
}
