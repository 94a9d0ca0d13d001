package i2csim

// ------------------------
// QMC5883L magnetometer
// ------------------------

const (
	qmcData   = 0x00
	qmcStatus = 0x06
	qmcCtrl1  = 0x09
	qmcCtrl2  = 0x0A
	qmcChipID = 0x0D

	qmcDRDY = 0x01
)

// QMC5883L models the register behaviour a driver relies on: chip id,
// continuous mode, DRDY set by a new sample and cleared by reading it.
type QMC5883L struct{ *Registers }

func NewQMC5883L() *QMC5883L {
	m := &QMC5883L{Registers: NewRegisters()}
	m.mem[qmcChipID] = 0xFF
	m.onWrite = func(reg, val byte) {
		if reg == qmcCtrl2 && val&0x80 != 0 { // soft reset
			for i := qmcData; i <= qmcCtrl2; i++ {
				m.mem[i] = 0
			}
		}
	}
	m.onRead = func(first uint8, n int) {
		if covers(first, n, qmcData+5) {
			m.mem[qmcStatus] &^= qmcDRDY
		}
	}
	return m
}

// Continuous reports whether the driver enabled continuous mode.
func (m *QMC5883L) Continuous() bool { return m.Get(qmcCtrl1)&0x03 == 0x01 }

// SetField publishes a new sample (little-endian) and raises DRDY if the
// device is measuring.
func (m *QMC5883L) SetField(x, y, z int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	put16le(m.mem[qmcData:], x)
	put16le(m.mem[qmcData+2:], y)
	put16le(m.mem[qmcData+4:], z)
	if m.mem[qmcCtrl1]&0x03 == 0x01 {
		m.mem[qmcStatus] |= qmcDRDY
	}
}

// ------------------------
// MPU-6050 IMU
// ------------------------

const (
	mpuAccel    = 0x3B
	mpuGyro     = 0x43
	mpuPwrMgmt1 = 0x6B
	mpuWhoAmI   = 0x75
)

// MPU6050 models WHO_AM_I, the sleep bit and the big-endian data registers.
type MPU6050 struct{ *Registers }

func NewMPU6050() *MPU6050 {
	m := &MPU6050{Registers: NewRegisters()}
	m.mem[mpuWhoAmI] = 0x68
	m.mem[mpuPwrMgmt1] = 0x40 // SLEEP after power-on
	return m
}

// Asleep reports the SLEEP bit.
func (m *MPU6050) Asleep() bool { return m.Get(mpuPwrMgmt1)&0x40 != 0 }

func (m *MPU6050) SetGyro(x, y, z int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	put16be(m.mem[mpuGyro:], x)
	put16be(m.mem[mpuGyro+2:], y)
	put16be(m.mem[mpuGyro+4:], z)
}

func (m *MPU6050) SetAccel(x, y, z int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	put16be(m.mem[mpuAccel:], x)
	put16be(m.mem[mpuAccel+2:], y)
	put16be(m.mem[mpuAccel+4:], z)
}

func put16le(b []byte, v int16) { b[0], b[1] = byte(v), byte(uint16(v)>>8) }
func put16be(b []byte, v int16) { b[0], b[1] = byte(uint16(v)>>8), byte(v) }
