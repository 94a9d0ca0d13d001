package i2cshare

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"sharedbus-go/errcode"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOther, KindOf(nil))
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
	assert.Equal(t, KindOverrun, KindOf(NewError(KindOverrun, "fifo")))
	assert.Equal(t, KindBus, KindOf(fmt.Errorf("wrapped: %w", NewError(KindBus, ""))))
}

func TestNewError_DefaultMessage(t *testing.T) {
	assert.Equal(t, "i2c: arbitration_loss", NewError(KindArbitrationLoss, "").Error())
	assert.Equal(t, "lost it", NewError(KindArbitrationLoss, "lost it").Error())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
		src  NoAckSource
	}{
		{errors.New("I2C: NACK received"), KindNoAcknowledge, NoAckUnknown},
		{errors.New("i2c: no device at address"), KindNoAcknowledge, NoAckAddress},
		{errors.New("remote I/O error"), KindNoAcknowledge, NoAckAddress},
		{errors.New("I2C arbitration lost"), KindArbitrationLoss, NoAckUnknown},
		{errors.New("rx fifo overrun"), KindOverrun, NoAckUnknown},
		{errors.New("bus busy"), KindBus, NoAckUnknown},
		{errcode.Nack, KindNoAcknowledge, NoAckUnknown},
		{&errcode.E{C: errcode.Busy, Op: "tx"}, KindBus, NoAckUnknown},
		{errors.New("something odd"), KindOther, NoAckUnknown},
	}
	for _, tc := range cases {
		got := Classify(tc.err)
		assert.Equal(t, tc.kind, KindOf(got), tc.err.Error())
		assert.Equal(t, tc.src, SourceOf(got), tc.err.Error())
		assert.Equal(t, tc.err.Error(), got.Error(), "message must be preserved")
		assert.True(t, errors.Is(got, tc.err), "original must stay reachable")
	}

	assert.Nil(t, Classify(nil))
	kinded := NoAck(NoAckData)
	assert.Same(t, kinded, Classify(kinded))
}

func TestKindCodes(t *testing.T) {
	assert.Equal(t, errcode.Nack, KindNoAcknowledge.Code())
	assert.Equal(t, errcode.ArbitrationLost, KindArbitrationLoss.Code())
	assert.Equal(t, errcode.BusError, KindBus.Code())
	assert.Equal(t, errcode.Overrun, KindOverrun.Code())
	assert.Equal(t, errcode.IOError, KindOther.Code())
	assert.Equal(t, "no_acknowledge", KindNoAcknowledge.String())
	assert.Equal(t, "data", NoAckData.String())
}
