package registry

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The registry resources are protobuf messages. The schemas are small and
// stable, so they are coded by hand on top of protowire instead of
// carrying generated bindings.

// Signed is the envelope of every signed index document.
type Signed struct {
	Payload   []byte
	Signature []byte
}

// Names lists the package names of a repository.
type Names struct {
	Packages   []NamesPackage
	Repository string
}

// NamesPackage is a single entry of a Names listing.
type NamesPackage struct {
	Name string
}

// Versions lists all versions of all packages of a repository.
type Versions struct {
	Packages   []VersionsPackage
	Repository string
}

// VersionsPackage is a single entry of a Versions listing.
type VersionsPackage struct {
	Name     string
	Versions []string
	Retired  []string
}

// Package describes the releases of a single package.
type Package struct {
	Releases   []Release
	Name       string
	Repository string
}

// Release is one published version of a package.
type Release struct {
	Version string
	// Checksum of the release tarball, compared against the SHA256 of
	// the downloaded bytes.
	Checksum     []byte
	Dependencies []Dependency
}

// Dependency of a release.
type Dependency struct {
	Package     string
	Requirement string
	Optional    bool
	App         string
	Repository  string
}

func (m *Signed) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.Payload)
	b = appendBytesField(b, 2, m.Signature)
	return b
}

func (m *Signed) Unmarshal(data []byte) error {
	return consumeMessage(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case 1:
			m.Payload = payload
		case 2:
			m.Signature = payload
		}
		return nil
	}, nil)
}

func (m *Names) Marshal() []byte {
	var b []byte
	for _, p := range m.Packages {
		b = appendBytesField(b, 1, appendStringField(nil, 1, p.Name))
	}
	b = appendStringField(b, 2, m.Repository)
	return b
}

func (m *Names) Unmarshal(data []byte) error {
	return consumeMessage(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case 1:
			var p NamesPackage
			err := consumeMessage(payload, func(num protowire.Number, b []byte) error {
				if num == 1 {
					p.Name = string(b)
				}
				return nil
			}, nil)
			if err != nil {
				return err
			}
			m.Packages = append(m.Packages, p)
		case 2:
			m.Repository = string(payload)
		}
		return nil
	}, nil)
}

func (m *Versions) Marshal() []byte {
	var b []byte
	for _, p := range m.Packages {
		var pb []byte
		pb = appendStringField(pb, 1, p.Name)
		for _, v := range p.Versions {
			pb = appendStringField(pb, 2, v)
		}
		for _, r := range p.Retired {
			pb = appendStringField(pb, 3, r)
		}
		b = appendBytesField(b, 1, pb)
	}
	b = appendStringField(b, 2, m.Repository)
	return b
}

func (m *Versions) Unmarshal(data []byte) error {
	return consumeMessage(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case 1:
			var p VersionsPackage
			err := consumeMessage(payload, func(num protowire.Number, b []byte) error {
				switch num {
				case 1:
					p.Name = string(b)
				case 2:
					p.Versions = append(p.Versions, string(b))
				case 3:
					p.Retired = append(p.Retired, string(b))
				}
				return nil
			}, nil)
			if err != nil {
				return err
			}
			m.Packages = append(m.Packages, p)
		case 2:
			m.Repository = string(payload)
		}
		return nil
	}, nil)
}

func (m *Package) Marshal() []byte {
	var b []byte
	for _, r := range m.Releases {
		b = appendBytesField(b, 1, r.Marshal())
	}
	b = appendStringField(b, 2, m.Name)
	b = appendStringField(b, 3, m.Repository)
	return b
}

func (m *Package) Unmarshal(data []byte) error {
	return consumeMessage(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case 1:
			var r Release
			if err := r.Unmarshal(payload); err != nil {
				return err
			}
			m.Releases = append(m.Releases, r)
		case 2:
			m.Name = string(payload)
		case 3:
			m.Repository = string(payload)
		}
		return nil
	}, nil)
}

func (r *Release) Marshal() []byte {
	var b []byte
	b = appendStringField(b, 1, r.Version)
	b = appendBytesField(b, 2, r.Checksum)
	for _, d := range r.Dependencies {
		var db []byte
		db = appendStringField(db, 1, d.Package)
		db = appendStringField(db, 2, d.Requirement)
		if d.Optional {
			db = protowire.AppendTag(db, 3, protowire.VarintType)
			db = protowire.AppendVarint(db, protowire.EncodeBool(true))
		}
		db = appendStringField(db, 4, d.App)
		db = appendStringField(db, 5, d.Repository)
		b = appendBytesField(b, 3, db)
	}
	return b
}

func (r *Release) Unmarshal(data []byte) error {
	return consumeMessage(data, func(num protowire.Number, payload []byte) error {
		switch num {
		case 1:
			r.Version = string(payload)
		case 2:
			r.Checksum = payload
		case 3:
			var d Dependency
			err := consumeMessage(payload, func(num protowire.Number, b []byte) error {
				switch num {
				case 1:
					d.Package = string(b)
				case 2:
					d.Requirement = string(b)
				case 4:
					d.App = string(b)
				case 5:
					d.Repository = string(b)
				}
				return nil
			}, func(num protowire.Number, v uint64) {
				if num == 3 {
					d.Optional = protowire.DecodeBool(v)
				}
			})
			if err != nil {
				return err
			}
			r.Dependencies = append(r.Dependencies, d)
		}
		return nil
	}, nil)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// consumeMessage walks a message's fields, handing length delimited
// payloads to bytes and varints to varint, skipping everything else.
func consumeMessage(data []byte, bytes func(protowire.Number, []byte) error, varint func(protowire.Number, uint64)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("decoding tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.BytesType:
			payload, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("decoding field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			if bytes != nil {
				if err := bytes(num, payload); err != nil {
					return err
				}
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("decoding field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			if varint != nil {
				varint(num, v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("decoding field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
