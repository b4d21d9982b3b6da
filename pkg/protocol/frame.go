package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize 单帧最大字节数，状态包携带整张地图，需要比输入包大得多
const MaxFrameSize = 64 * 1024

// WriteFrame 写入一个长度前缀帧（4 字节大端长度 + 数据）
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooBig, len(data))
	}
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	_, err := w.Write(buf)
	return err
}

// ReadFrame 读取一个长度前缀帧，长度为 0 时返回空切片
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooBig, length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WritePacket 序列化并写入数据包
func WritePacket(w io.Writer, p *Packet) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	return WriteFrame(w, data)
}

// ReadPacket 读取并解析一个数据包
func ReadPacket(r io.Reader) (*Packet, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
