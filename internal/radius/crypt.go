package radius

import (
	"crypto/md5" //nolint:gosec // G501: MD5 is mandated by RFC 2865 Section 5.2
	"encoding"
	"errors"
	"fmt"
	"hash"
)

// -------------------------------------------------------------------------
// Attribute Encryption — RFC 2865 Section 5.2, RFC 2868 Section 3.5
// -------------------------------------------------------------------------

const (
	// VectorLen is the request/response authenticator length.
	VectorLen = 16

	// passBlockLen is the keystream block size for the password schemes.
	passBlockLen = 16

	// maxPasswordLen is the RFC 2865 Section 5.2 User-Password ceiling.
	// Longer ciphertext is truncated before decryption.
	maxPasswordLen = 128
)

// Sentinel errors for the password decoders.
var (
	// ErrTunnelPasswordTooShort indicates ciphertext shorter than the
	// two-byte salt (RFC 2868 Section 3.5).
	ErrTunnelPasswordTooShort = errors.New("tunnel password too short")

	// ErrTunnelPasswordTooLong indicates a declared plaintext length
	// exceeding the ciphertext window. The attribute is malformed; the
	// dispatcher demotes it to raw.
	ErrTunnelPasswordTooLong = errors.New("tunnel password too long for attribute")
)

// secretDigest is the intermediate MD5 state with the shared secret
// already absorbed. Both password schemes derive every keystream block
// from this state, so it is computed once and replayed per block.
type secretDigest struct {
	snapshot []byte
}

// newSecretDigest absorbs the secret and snapshots the hash state.
func newSecretDigest(secret []byte) secretDigest {
	h := md5.New() //nolint:gosec // G401: RFC-mandated keystream derivation
	h.Write(secret)

	snap, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		// crypto/md5's marshaler cannot fail; keep the fallback honest.
		panic(fmt.Sprintf("md5 state snapshot: %v", err))
	}

	return secretDigest{snapshot: snap}
}

// clone restores a hash from the snapshot.
func (s secretDigest) clone() hash.Hash {
	h := md5.New() //nolint:gosec // G401: RFC-mandated keystream derivation
	if err := h.(encoding.BinaryUnmarshaler).UnmarshalBinary(s.snapshot); err != nil {
		panic(fmt.Sprintf("md5 state restore: %v", err))
	}
	return h
}

// block finalises MD5(secret || parts...) into digest.
func (s secretDigest) block(digest *[passBlockLen]byte, parts ...[]byte) {
	h := s.clone()
	for _, p := range parts {
		h.Write(p)
	}
	h.Sum(digest[:0])
}

// DecryptUserPassword decrypts an RFC 2865 Section 5.2 User-Password in
// place and returns the plaintext length.
//
// The keystream is b(1) = MD5(secret + vector), b(i) = MD5(secret +
// c(i-1)); plaintext is ciphertext XOR keystream. Trailing NUL padding is
// stripped, preserving embedded NULs. There is no failure mode: a wrong
// secret yields garbage that is indistinguishable from a valid password
// at this layer.
func DecryptUserPassword(buf []byte, secret []byte, vector [VectorLen]byte) int {
	if len(buf) > maxPasswordLen {
		buf = buf[:maxPasswordLen]
	}
	if len(buf) == 0 {
		return 0
	}

	sd := newSecretDigest(secret)

	var digest, prev [passBlockLen]byte
	prevLen := 0

	for n := 0; n < len(buf); n += passBlockLen {
		if n == 0 {
			sd.block(&digest, vector[:])
		} else {
			sd.block(&digest, prev[:prevLen])
		}

		end := n + passBlockLen
		if end > len(buf) {
			end = len(buf)
		}

		// The next block's keystream hashes this block's ciphertext,
		// so capture it before the in-place XOR destroys it.
		prevLen = copy(prev[:], buf[n:end])

		for i := n; i < end; i++ {
			buf[i] ^= digest[i-n]
		}
	}

	// Strip trailing NULs; embedded NULs are part of the password.
	plain := len(buf)
	for plain > 0 && buf[plain-1] == 0 {
		plain--
	}

	return plain
}

// DecryptTunnelPassword decrypts an RFC 2868 Section 3.5 Tunnel-Password.
//
// buf holds the wire value: a 2-byte salt, then ciphertext whose first
// plaintext byte is the declared password length. The plaintext is written
// to the front of buf and its declared length returned.
//
// The keystream is b(1) = MD5(secret + vector + salt), b(i) = MD5(secret +
// c(i-1)) where the ciphertext blocks cover the length byte and password.
//
// Inputs of 2 or 3 bytes decode as an empty password: there is a salt but
// no payload beyond at most the length byte, so the length byte is
// ignored. A declared length exceeding the ciphertext window returns
// ErrTunnelPasswordTooLong.
func DecryptTunnelPassword(buf []byte, secret []byte, vector [VectorLen]byte) (int, error) {
	if len(buf) < 2 {
		return 0, ErrTunnelPasswordTooShort
	}
	if len(buf) <= 3 {
		return 0, nil
	}

	salt := buf[:2]
	encLen := len(buf) - 2 // ciphertext, covering the declared-length byte

	sd := newSecretDigest(secret)

	var digest, prev [passBlockLen]byte
	prevLen := 0
	declared := 0

	for n := 0; n < encLen; n += passBlockLen {
		blockLen := passBlockLen
		if n+blockLen > encLen {
			blockLen = encLen - n
		}

		if n == 0 {
			sd.block(&digest, vector[:], salt)

			// First plaintext byte is the declared length; sanity
			// check it before doing any more work.
			declared = int(buf[2] ^ digest[0])
			if declared > encLen {
				return 0, ErrTunnelPasswordTooLong
			}
		} else {
			sd.block(&digest, prev[:prevLen])
		}

		// Capture this block's ciphertext for the next derivation:
		// the XOR below writes plaintext over the bytes just before
		// it, and the final block would otherwise be clobbered.
		prevLen = copy(prev[:], buf[2+n:2+n+blockLen])

		base := 0
		if n == 0 {
			base = 1 // skip the declared-length byte
		}
		for i := base; i < blockLen; i++ {
			buf[n+i-1] = prev[i] ^ digest[i]
		}
	}

	return declared, nil
}

// MakeSecret computes the Ascend-Send-Secret digest: MD5(vector + secret)
// XOR data, truncated to the vector length. Mirrors the original
// fr_radius_make_secret helper.
func MakeSecret(vector [VectorLen]byte, secret []byte, data []byte) [VectorLen]byte {
	h := md5.New() //nolint:gosec // G401: Ascend scheme is MD5-defined
	h.Write(vector[:])
	h.Write(secret)

	var digest [VectorLen]byte
	h.Sum(digest[:0])

	for i := 0; i < VectorLen && i < len(data); i++ {
		digest[i] ^= data[i]
	}

	return digest
}
