/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-04 15:12:40
 * @FilePath: \adops-engine\backend\internal\infra\security\cipher.go
 * @LastEditTime: 2026-09-04 15:40:02
 */
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MasterKeyEnv 保存投放平台 access token 的主密钥（base64 编码的 32 字节）。
const MasterKeyEnv = "PLATFORM_CREDENTIAL_MASTER_KEY"

// ErrMasterKeyMissing 表示未配置主密钥，调用方可以据此降级。
var ErrMasterKeyMissing = errors.New("platform credential master key not configured")

// Cipher 使用 AES-256-GCM 加解密平台凭据，输出格式为 nonce|ciphertext。
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher 根据 32 字节密钥构造 Cipher。
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Cipher{aead: gcm}, nil
}

// NewCipherFromEnv 从 PLATFORM_CREDENTIAL_MASTER_KEY 读取主密钥。
func NewCipherFromEnv() (*Cipher, error) {
	raw := strings.TrimSpace(os.Getenv(MasterKeyEnv))
	if raw == "" {
		return nil, ErrMasterKeyMissing
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	return NewCipher(key)
}

// Encrypt 将明文加密为 nonce|ciphertext。
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// Decrypt 解析 nonce|ciphertext 并返回明文。
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	plain, err := c.aead.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plain, nil
}
