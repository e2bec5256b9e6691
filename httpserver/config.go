/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package httpserver

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nabbar/httpsrv/errors"
)

var validate = validator.New()

// Config describes one server instance, validated before it reaches the
// directory. URL carries scheme://host:port and is checked only for being a
// valid URL: the directory keys entries (minus the scheme) on the URL passed
// to Directory.Get, not on this field.
type Config struct {
	Name string `validate:"required"`
	URL  string `validate:"required,url"`

	ReadHeaderTimeout time.Duration `validate:"gte=0"`
	ReadTimeout       time.Duration `validate:"gte=0"`
	WriteTimeout      time.Duration `validate:"gte=0"`
	IdleTimeout       time.Duration `validate:"gte=0"`

	// MaxHeaderBytes bounds the request line plus headers read per request
	// (0 means unlimited); exceeding it aborts the read and the connection
	// is answered with 400, the same as any other malformed request line.
	MaxHeaderBytes int `validate:"gte=0"`

	TLS *TLSConfig `validate:"omitempty"`
}

// Validate runs struct-tag validation and returns a wrapped ErrorInvalidArgument
// on the first failure, matching the style the rest of this package's errors use.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(ErrorInvalidArgument, "invalid server config", err)
	}
	return nil
}

// TLSConfig builds a *tls.Config from file paths, so callers hand this
// engine paths rather than pre-parsed certificates.
type TLSConfig struct {
	CertFile     string `validate:"required_with=KeyFile"`
	KeyFile      string `validate:"required_with=CertFile"`
	ClientCAFile string
	MinVersion   uint16
}

// Build loads the certificate (and optional client CA) and returns a ready
// server-side *tls.Config. Called only while the owning server has zero
// starts, per the engine's pre-start-only TLS-binding rule.
func (t *TLSConfig) Build() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		return nil, errors.New(ErrorInvalidArgument, "loading TLS certificate", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   t.MinVersion,
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}

	if t.ClientCAFile != "" {
		pem, err := os.ReadFile(t.ClientCAFile)
		if err != nil {
			return nil, errors.New(ErrorInvalidArgument, "reading client CA file", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New(ErrorInvalidArgument, "client CA file has no usable certificates")
		}

		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}
