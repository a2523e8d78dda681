package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderJoinsFinals(t *testing.T) {
	b := NewBuilder(Cleaner{})
	b.Add(Segment{Text: "Hello", Final: true})
	b.Add(Segment{Text: "world", Final: true})

	assert.Equal(t, "Hello world", b.Paragraph())
}

func TestBuilderIgnoresInterims(t *testing.T) {
	b := NewBuilder(Cleaner{})
	b.Add(Segment{Text: "hel"})
	b.Add(Segment{Text: "hello wor"})
	b.Add(Segment{Text: "hello world", Final: true})
	b.Add(Segment{Text: "goodb"})

	assert.Equal(t, "hello world", b.Paragraph())
}

func TestBuilderDropsRepeatedFinal(t *testing.T) {
	b := NewBuilder(Cleaner{})
	b.Add(Segment{Text: "same thing", Final: true})
	b.Add(Segment{Text: "same thing", Final: true})
	b.Add(Segment{Text: "new thing", Final: true})

	assert.Equal(t, "same thing new thing", b.Paragraph())
}

func TestBuilderEmptyRun(t *testing.T) {
	b := NewBuilder(Cleaner{RemoveFillers: true})

	assert.True(t, b.Empty())
	assert.Equal(t, "", b.Paragraph())
}

func TestCleanerRemovesFillers(t *testing.T) {
	c := Cleaner{RemoveFillers: true}

	assert.Equal(t, "so this is a test", c.Clean("um so this is uh a test"))
	assert.Equal(t, "right", c.Clean("Hmm, right"))
	assert.Equal(t, "okay then", c.Clean("uhhh okay ermmm then"))
}

func TestCleanerWholeTokenOnly(t *testing.T) {
	c := Cleaner{RemoveFillers: true}

	// Filler sequences inside regular words stay put.
	assert.Equal(t, "summer is humid", c.Clean("summer is humid"))
	assert.Equal(t, "a drum solo", c.Clean("a drum solo"))
}

func TestCleanerKeepsFillersWhenDisabled(t *testing.T) {
	c := Cleaner{}

	assert.Equal(t, "um so this is uh a test", c.Clean("um so this is uh a test"))
}

func TestCleanerNormalizesSpacing(t *testing.T) {
	c := Cleaner{RemoveFillers: true}

	assert.Equal(t, "one, two. three!", c.Clean("  one ,  two .   three !"))
	assert.Equal(t, "so, there we go", c.Clean("um, so, uh there we go"))
}
