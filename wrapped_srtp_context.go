package gortpsender

import (
	"sync"

	"github.com/pion/srtp/v3"
)

const (
	srtpKeyLength = 30
)

// srtp.Context with
// - accessible key
// - mutex around Encrypt*
type wrappedSRTPContext struct {
	key []byte

	w     *srtp.Context
	mutex sync.Mutex
}

func (ctx *wrappedSRTPContext) initialize() error {
	var err error
	ctx.w, err = srtp.CreateContext(ctx.key[:16], ctx.key[16:], srtp.ProtectionProfileAes128CmHmacSha1_80)
	if err != nil {
		return err
	}

	return nil
}

func (ctx *wrappedSRTPContext) encryptRTP(dst []byte, plaintext []byte) ([]byte, error) {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	return ctx.w.EncryptRTP(dst, plaintext, nil)
}

func (ctx *wrappedSRTPContext) encryptRTCP(dst []byte, decrypted []byte) ([]byte, error) {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	return ctx.w.EncryptRTCP(dst, decrypted, nil)
}
