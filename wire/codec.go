/*
 * Copyright 2026 The OrdainSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wire implements the binary client protocol of OrdainSQL and its
// connection server.
//
// Every message starts with a fixed 12 byte header: a uint32 magic, a uint8
// protocol version, a uint8 message type, a uint16 flag set and a uint32
// request id. All integers are little-endian. Strings and blobs are
// length-prefixed with a uint32, binding and result cells are typed values
// with a one byte tag. A request body carries its total length, the database
// id, the SQL text and a uint16-counted binding list. Every length field is
// checked against MaxMessageSize before any allocation happens, so a hostile
// peer cannot make the node allocate more than it actually sends.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

const (
	// MagicNumber is the protocol magic, the bytes "SQLT" read as a little-endian uint32.
	MagicNumber uint32 = 0x544C5153
	// ProtocolVersion is the highest protocol version this node speaks.
	ProtocolVersion uint8 = 1
	// HeaderSize is the fixed message header size in bytes.
	HeaderSize = 12
	// MaxMessageSize bounds every length field of the protocol.
	MaxMessageSize = 16 * 1024 * 1024
)

// Message types. Requests use the low half of the type space, responses the
// high half.
const (
	// TypeQuery requests a read statement.
	TypeQuery uint8 = 1
	// TypeExec requests a write statement.
	TypeExec uint8 = 2
	// TypeTxBegin opens a client transaction.
	TypeTxBegin uint8 = 3
	// TypeTxCommit commits the open client transaction.
	TypeTxCommit uint8 = 4
	// TypeTxRollback discards the open client transaction.
	TypeTxRollback uint8 = 5
	// TypePing is a connection health check.
	TypePing uint8 = 6
	// TypeResult is a buffered query or exec result.
	TypeResult uint8 = 128
	// TypeError is an error response.
	TypeError uint8 = 129
	// TypeRows opens a streamed result set.
	TypeRows uint8 = 130
	// TypeRowsEnd terminates a streamed result set.
	TypeRowsEnd uint8 = 131
	// TypePong answers a ping.
	TypePong uint8 = 134
)

// Header flags.
const (
	// FlagStreaming requests row streaming instead of a buffered result.
	FlagStreaming uint16 = 1 << 0
	// FlagCompression requests body compression, reserved.
	FlagCompression uint16 = 1 << 1
	// FlagAssoc requests column-keyed rows, reserved.
	FlagAssoc uint16 = 1 << 2
)

// Value type tags.
const (
	ValueNull    uint8 = 0
	ValueInt64   uint8 = 1
	ValueFloat64 uint8 = 2
	ValueString  uint8 = 3
	ValueBlob    uint8 = 4
	ValueBool    uint8 = 5
)

// Header is the fixed-size frame header of every protocol message.
type Header struct {
	Magic     uint32
	Version   uint8
	Type      uint8
	Flags     uint16
	RequestID uint32
}

// Value is a typed scalar moved over the wire, either a statement binding or
// a result cell. Non-null values carry a uint32 length and raw little-endian
// bytes.
type Value struct {
	Type uint8
	Data []byte
}

// Request is a decoded client request frame.
type Request struct {
	Header
	DatabaseID string
	SQL        string
	Bindings   []Value
}

// ReadHeader reads and validates one message header.
func ReadHeader(r io.Reader) (h *Header, err error) {
	var buf [HeaderSize]byte
	if _, err = io.ReadFull(r, buf[:]); err != nil {
		return
	}
	h = &Header{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Type:      buf[5],
		Flags:     binary.LittleEndian.Uint16(buf[6:8]),
		RequestID: binary.LittleEndian.Uint32(buf[8:12]),
	}
	if h.Magic != MagicNumber {
		return nil, ErrBadMagic
	}
	if h.Version > ProtocolVersion {
		return nil, ErrVersionTooNew
	}
	return
}

// WriteHeader writes one message header. The magic field of h is ignored,
// the protocol magic is always written.
func WriteHeader(w io.Writer, h *Header) (err error) {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], MagicNumber)
	buf[4] = h.Version
	buf[5] = h.Type
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.RequestID)
	_, err = w.Write(buf[:])
	return
}

// ReadString reads one length-prefixed string.
func ReadString(r io.Reader) (s string, err error) {
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > MaxMessageSize {
		err = ErrMessageTooLarge
		return
	}
	if length == 0 {
		return
	}
	strBuf := make([]byte, length)
	if _, err = io.ReadFull(r, strBuf); err != nil {
		return
	}
	s = string(strBuf)
	return
}

// WriteString writes one length-prefixed string.
func WriteString(w io.Writer, s string) (err error) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err = w.Write(lenBuf[:]); err != nil {
		return
	}
	if len(s) > 0 {
		_, err = w.Write([]byte(s))
	}
	return
}

// ReadValue reads one typed value.
func ReadValue(r io.Reader) (v *Value, err error) {
	var tagBuf [1]byte
	if _, err = io.ReadFull(r, tagBuf[:]); err != nil {
		return
	}
	v = &Value{Type: tagBuf[0]}
	if v.Type == ValueNull {
		return
	}
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	if length > 0 {
		v.Data = make([]byte, length)
		if _, err = io.ReadFull(r, v.Data); err != nil {
			return nil, err
		}
	}
	return
}

// WriteValue writes one typed value.
func WriteValue(w io.Writer, v *Value) (err error) {
	if _, err = w.Write([]byte{v.Type}); err != nil {
		return
	}
	if v.Type == ValueNull {
		return
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(v.Data)))
	if _, err = w.Write(lenBuf[:]); err != nil {
		return
	}
	if len(v.Data) > 0 {
		_, err = w.Write(v.Data)
	}
	return
}

// ReadRequest reads one complete request frame including its header.
func ReadRequest(r io.Reader) (req *Request, err error) {
	var h *Header
	if h, err = ReadHeader(r); err != nil {
		return
	}
	return ReadRequestBody(r, h)
}

// ReadRequestBody reads a request body following an already consumed header.
func ReadRequestBody(r io.Reader, h *Header) (req *Request, err error) {
	req = &Request{Header: *h}

	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(lenBuf[:]) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	if req.DatabaseID, err = ReadString(r); err != nil {
		return nil, err
	}
	if req.SQL, err = ReadString(r); err != nil {
		return nil, err
	}

	var countBuf [2]byte
	if _, err = io.ReadFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	bindingCount := binary.LittleEndian.Uint16(countBuf[:])

	req.Bindings = make([]Value, bindingCount)
	for i := uint16(0); i < bindingCount; i++ {
		var v *Value
		if v, err = ReadValue(r); err != nil {
			return nil, err
		}
		req.Bindings[i] = *v
	}
	return
}

// WriteRequest writes one complete request frame.
func WriteRequest(w io.Writer, req *Request) (err error) {
	if err = WriteHeader(w, &req.Header); err != nil {
		return
	}

	bodyLen := uint32(4 + len(req.DatabaseID) + 4 + len(req.SQL) + 2)
	for _, v := range req.Bindings {
		bodyLen++
		if v.Type != ValueNull {
			bodyLen += 4 + uint32(len(v.Data))
		}
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], bodyLen)
	if _, err = w.Write(lenBuf[:]); err != nil {
		return
	}
	if err = WriteString(w, req.DatabaseID); err != nil {
		return
	}
	if err = WriteString(w, req.SQL); err != nil {
		return
	}

	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(req.Bindings)))
	if _, err = w.Write(countBuf[:]); err != nil {
		return
	}
	for i := range req.Bindings {
		if err = WriteValue(w, &req.Bindings[i]); err != nil {
			return
		}
	}
	return
}

// WriteErrorResponse writes an error response frame.
func WriteErrorResponse(w io.Writer, requestID uint32, errMsg string) (err error) {
	h := &Header{
		Version:   ProtocolVersion,
		Type:      TypeError,
		RequestID: requestID,
	}
	if err = WriteHeader(w, h); err != nil {
		return
	}
	return WriteString(w, errMsg)
}

// WriteExecResult writes a buffered result frame of a write statement.
func WriteExecResult(w io.Writer, requestID uint32, lastInsertID int64, rowsAffected int64) (err error) {
	h := &Header{
		Version:   ProtocolVersion,
		Type:      TypeResult,
		RequestID: requestID,
	}
	if err = WriteHeader(w, h); err != nil {
		return
	}
	var buf [17]byte
	buf[0] = 1
	binary.LittleEndian.PutUint64(buf[1:9], uint64(lastInsertID))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(rowsAffected))
	_, err = w.Write(buf[:])
	return
}

// ReadExecResult reads the body of a buffered write statement result.
func ReadExecResult(r io.Reader) (lastInsertID int64, rowsAffected int64, err error) {
	var buf [17]byte
	if _, err = io.ReadFull(r, buf[:]); err != nil {
		return
	}
	if buf[0] != 1 {
		err = ErrInvalidMessage
		return
	}
	lastInsertID = int64(binary.LittleEndian.Uint64(buf[1:9]))
	rowsAffected = int64(binary.LittleEndian.Uint64(buf[9:17]))
	return
}

// WriteQueryResult writes a buffered result frame of a read statement.
func WriteQueryResult(w io.Writer, requestID uint32, columns []string, rows [][]Value) (err error) {
	h := &Header{
		Version:   ProtocolVersion,
		Type:      TypeResult,
		RequestID: requestID,
	}
	if err = WriteHeader(w, h); err != nil {
		return
	}
	if _, err = w.Write([]byte{1}); err != nil {
		return
	}
	if err = writeColumns(w, columns); err != nil {
		return
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(rows)))
	if _, err = w.Write(countBuf[:]); err != nil {
		return
	}
	for i := range rows {
		if err = writeRowBody(w, rows[i]); err != nil {
			return
		}
	}
	return
}

// ReadQueryResult reads the body of a buffered read statement result.
func ReadQueryResult(r io.Reader) (columns []string, rows [][]Value, err error) {
	var flagBuf [1]byte
	if _, err = io.ReadFull(r, flagBuf[:]); err != nil {
		return
	}
	if flagBuf[0] != 1 {
		err = ErrInvalidMessage
		return
	}
	if columns, err = ReadColumns(r); err != nil {
		return
	}
	var countBuf [4]byte
	if _, err = io.ReadFull(r, countBuf[:]); err != nil {
		return
	}
	// Do not preallocate by the announced count, a hostile peer may announce
	// rows it never sends.
	rowCount := binary.LittleEndian.Uint32(countBuf[:])
	rows = make([][]Value, 0)
	for i := uint32(0); i < rowCount; i++ {
		var row []Value
		if row, err = readRowBody(r); err != nil {
			return
		}
		rows = append(rows, row)
	}
	return
}

// WritePong writes a ping answer frame.
func WritePong(w io.Writer, requestID uint32) error {
	return WriteHeader(w, &Header{
		Version:   ProtocolVersion,
		Type:      TypePong,
		RequestID: requestID,
	})
}

// WriteRowsStart opens a streamed result set with its column names.
func WriteRowsStart(w io.Writer, requestID uint32, columns []string) (err error) {
	h := &Header{
		Version:   ProtocolVersion,
		Type:      TypeRows,
		Flags:     FlagStreaming,
		RequestID: requestID,
	}
	if err = WriteHeader(w, h); err != nil {
		return
	}
	return writeColumns(w, columns)
}

// WriteRow writes one streamed row in a single length-prefixed write.
func WriteRow(w io.Writer, row []Value) (err error) {
	var body bytes.Buffer
	if err = writeRowBody(&body, row); err != nil {
		return
	}
	buf := make([]byte, 4+body.Len())
	binary.LittleEndian.PutUint32(buf[0:4], uint32(body.Len()))
	copy(buf[4:], body.Bytes())
	_, err = w.Write(buf)
	return
}

// WriteRowsEnd terminates a streamed result set.
func WriteRowsEnd(w io.Writer, requestID uint32) error {
	return WriteHeader(w, &Header{
		Version:   ProtocolVersion,
		Type:      TypeRowsEnd,
		RequestID: requestID,
	})
}

// ReadStreamedRow reads the next row of a streamed result set and reports
// done once the terminating RowsEnd frame is consumed. The magic constant is
// far above MaxMessageSize, so a row length prefix can never alias a trailing
// frame header.
func ReadStreamedRow(r io.Reader) (row []Value, done bool, err error) {
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length == MagicNumber {
		var rest [HeaderSize - 4]byte
		if _, err = io.ReadFull(r, rest[:]); err != nil {
			return
		}
		if rest[1] != TypeRowsEnd {
			err = ErrInvalidMessage
			return
		}
		done = true
		return
	}
	if length > MaxMessageSize {
		err = ErrMessageTooLarge
		return
	}
	payload := make([]byte, length)
	if _, err = io.ReadFull(r, payload); err != nil {
		return
	}
	row, err = readRowBody(bytes.NewReader(payload))
	return
}

// ReadColumns reads a uint16-counted column name list.
func ReadColumns(r io.Reader) (columns []string, err error) {
	var countBuf [2]byte
	if _, err = io.ReadFull(r, countBuf[:]); err != nil {
		return
	}
	count := binary.LittleEndian.Uint16(countBuf[:])
	columns = make([]string, count)
	for i := uint16(0); i < count; i++ {
		if columns[i], err = ReadString(r); err != nil {
			return nil, err
		}
	}
	return
}

func writeColumns(w io.Writer, columns []string) (err error) {
	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(columns)))
	if _, err = w.Write(countBuf[:]); err != nil {
		return
	}
	for _, name := range columns {
		if err = WriteString(w, name); err != nil {
			return
		}
	}
	return
}

func writeRowBody(w io.Writer, row []Value) (err error) {
	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(row)))
	if _, err = w.Write(countBuf[:]); err != nil {
		return
	}
	for i := range row {
		if err = WriteValue(w, &row[i]); err != nil {
			return
		}
	}
	return
}

func readRowBody(r io.Reader) (row []Value, err error) {
	var countBuf [2]byte
	if _, err = io.ReadFull(r, countBuf[:]); err != nil {
		return
	}
	count := binary.LittleEndian.Uint16(countBuf[:])
	row = make([]Value, count)
	for i := uint16(0); i < count; i++ {
		var v *Value
		if v, err = ReadValue(r); err != nil {
			return nil, err
		}
		row[i] = *v
	}
	return
}

// NewInt64Value returns an int64 wire value.
func NewInt64Value(v int64) Value {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return Value{Type: ValueInt64, Data: buf[:]}
}

// NewFloat64Value returns a float64 wire value.
func NewFloat64Value(v float64) Value {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return Value{Type: ValueFloat64, Data: buf[:]}
}

// NewStringValue returns a string wire value.
func NewStringValue(s string) Value {
	return Value{Type: ValueString, Data: []byte(s)}
}

// NewBlobValue returns a blob wire value.
func NewBlobValue(b []byte) Value {
	return Value{Type: ValueBlob, Data: b}
}

// NewBoolValue returns a bool wire value.
func NewBoolValue(b bool) Value {
	if b {
		return Value{Type: ValueBool, Data: []byte{1}}
	}
	return Value{Type: ValueBool, Data: []byte{0}}
}

// NullValue returns a null wire value.
func NullValue() Value {
	return Value{Type: ValueNull}
}

// NewValue converts a database native value to its wire form. Values of
// unhandled types are rendered as strings.
func NewValue(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return NullValue()
	case bool:
		return NewBoolValue(v)
	case int:
		return NewInt64Value(int64(v))
	case int64:
		return NewInt64Value(v)
	case uint64:
		return NewInt64Value(int64(v))
	case float64:
		return NewFloat64Value(v)
	case string:
		return NewStringValue(v)
	case []byte:
		return NewBlobValue(v)
	case time.Time:
		return NewStringValue(v.Format(time.RFC3339Nano))
	default:
		return NewStringValue(fmt.Sprint(v))
	}
}

// AsInt64 returns the carried int64, or 0 for other value types.
func (v *Value) AsInt64() int64 {
	if v.Type != ValueInt64 || len(v.Data) != 8 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(v.Data))
}

// AsFloat64 returns the carried float64, or 0 for other value types.
func (v *Value) AsFloat64() float64 {
	if v.Type != ValueFloat64 || len(v.Data) != 8 {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Data))
}

// AsString returns the carried string, or "" for other value types.
func (v *Value) AsString() string {
	if v.Type != ValueString {
		return ""
	}
	return string(v.Data)
}

// AsBlob returns the carried bytes, or nil for other value types.
func (v *Value) AsBlob() []byte {
	if v.Type != ValueBlob {
		return nil
	}
	return v.Data
}

// AsBool returns the carried bool, or false for other value types.
func (v *Value) AsBool() bool {
	if v.Type != ValueBool || len(v.Data) != 1 {
		return false
	}
	return v.Data[0] != 0
}

// IsNull reports whether the value is null.
func (v *Value) IsNull() bool {
	return v.Type == ValueNull
}

// Interface returns the Go value carried by v, one of nil, int64, float64,
// string, []byte or bool.
func (v *Value) Interface() interface{} {
	switch v.Type {
	case ValueInt64:
		return v.AsInt64()
	case ValueFloat64:
		return v.AsFloat64()
	case ValueString:
		return v.AsString()
	case ValueBlob:
		return v.AsBlob()
	case ValueBool:
		return v.AsBool()
	default:
		return nil
	}
}
