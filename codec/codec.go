// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package codec encodes and decodes configuration files. The format is
// inferred from the file extension: JSON (.json), YAML (.yaml, .yml) and
// dotenv (.env).
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Decoder interface {
	Decode(data []byte, v any) error
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Codec interface {
	Decoder
	Encoder
}

type jsonCodec struct{}

// Decode keeps numbers as json.Number so that large integers survive
// without being reformatted as floats.
func (jsonCodec) Decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

func (jsonCodec) Encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

type yamlCodec struct{}

func (yamlCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (yamlCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// dotenvCodec handles flat KEY=value files. It only decodes into and encodes
// from string-keyed maps.
type dotenvCodec struct{}

func (dotenvCodec) Decode(data []byte, v any) error {
	m, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case *map[string]string:
		*t = m
	case *map[string]any:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		*t = out
	default:
		return fmt.Errorf("dotenv cannot decode into %T", v)
	}
	return nil
}

func (dotenvCodec) Encode(v any) ([]byte, error) {
	var m map[string]string
	switch t := v.(type) {
	case map[string]string:
		m = t
	case map[string]any:
		m = make(map[string]string, len(t))
		for k, x := range t {
			m[k] = fmt.Sprint(x)
		}
	default:
		return nil, fmt.Errorf("dotenv cannot encode %T", v)
	}
	s, err := godotenv.Marshal(m)
	if err != nil {
		return nil, err
	}
	return []byte(s + "\n"), nil
}

var codecs = map[string]Codec{
	".json": jsonCodec{},
	".yaml": yamlCodec{},
	".yml":  yamlCodec{},
	".env":  dotenvCodec{},
}

// Extensions returns the supported file extensions in lexical order.
func Extensions() []string {
	return slices.Sorted(maps.Keys(codecs))
}

// Infer selects the Codec matching the extension of path.
func Infer(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if c, ok := codecs[ext]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unsupported file extension %q", ext)
}
