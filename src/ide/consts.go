package ide

// Command block registers, offsets from the channel's command base.
const (
	ATA_REG_DATA     = 0x00
	ATA_REG_ERROR    = 0x01
	ATA_REG_FEATURES = 0x01
	ATA_REG_SECCOUNT = 0x02
	ATA_REG_LBA0     = 0x03 // sector number in CHS mode
	ATA_REG_LBA1     = 0x04 // cylinder low
	ATA_REG_LBA2     = 0x05 // cylinder high
	ATA_REG_HDDEVSEL = 0x06
	ATA_REG_COMMAND  = 0x07
	ATA_REG_STATUS   = 0x07
)

// Bus master registers, offsets from the channel's bus master base.
const (
	BM_REG_CMD    = 0x00
	BM_REG_STATUS = 0x02
	BM_REG_PRDT   = 0x04

	BM_CMD_START uint8 = 1 << 0
	// transfer from the device into memory, i.e. a disk read
	BM_CMD_READ uint8 = 1 << 3

	BM_STAT_ACTIVE uint8 = 1 << 0
	BM_STAT_ERR    uint8 = 1 << 1
	BM_STAT_IRQ    uint8 = 1 << 2
)

// Status register bits.
const (
	ATA_SR_BSY  uint8 = 0x80
	ATA_SR_DRDY uint8 = 0x40
	ATA_SR_DF   uint8 = 0x20
	ATA_SR_DSC  uint8 = 0x10
	ATA_SR_DRQ  uint8 = 0x08
	ATA_SR_ERR  uint8 = 0x01
)

// Device control register bits.
const (
	ATA_CTL_NIEN uint8 = 0x02
	ATA_CTL_SRST uint8 = 0x04
)

// Drive/head register.
const (
	ATA_SEL_CHS uint8 = 0xa0
	ATA_SEL_LBA uint8 = 0xe0
)

const (
	ATA_CMD_READ_PIO        uint8 = 0x20
	ATA_CMD_READ_PIO_EXT    uint8 = 0x24
	ATA_CMD_READ_DMA        uint8 = 0xc8
	ATA_CMD_READ_DMA_EXT    uint8 = 0x25
	ATA_CMD_WRITE_PIO       uint8 = 0x30
	ATA_CMD_WRITE_PIO_EXT   uint8 = 0x34
	ATA_CMD_WRITE_DMA       uint8 = 0xca
	ATA_CMD_WRITE_DMA_EXT   uint8 = 0x35
	ATA_CMD_CACHE_FLUSH     uint8 = 0xe7
	ATA_CMD_CACHE_FLUSH_EXT uint8 = 0xea
	ATA_CMD_PACKET          uint8 = 0xa0
	ATA_CMD_IDENTIFY_PACKET uint8 = 0xa1
	ATA_CMD_IDENTIFY        uint8 = 0xec

	ATAPI_CMD_READ_CAPACITY uint8 = 0x25
	ATAPI_CMD_READ          uint8 = 0xa8
)

// Word offsets into IDENTIFY (PACKET) DEVICE data.
const (
	IDENT_DEVICETYPE   = 0
	IDENT_CYLINDERS    = 1
	IDENT_HEADS        = 3
	IDENT_SECTORS      = 6
	IDENT_SERIAL       = 10
	IDENT_FIRMWARE     = 23
	IDENT_MODEL        = 27
	IDENT_CAPABILITIES = 49
	IDENT_MAX_LBA      = 60
	IDENT_MWDMA        = 63
	IDENT_MAJOR        = 80
	IDENT_MINOR        = 81
	IDENT_COMMANDSETS  = 82
	IDENT_UDMA         = 88
	IDENT_MAX_LBA_EXT  = 100

	IDENT_CAP_LBA    uint16 = 1 << 9
	IDENT_CMD2_LBA48 uint16 = 1 << 10 // in the second command set word
)

// Legacy base addresses of the compatibility mode channels.
var legacy = [2]struct{ cmd, ctl uint16 }{
	{0x1f0, 0x3f4},
	{0x170, 0x374},
}

const (
	ATAPI_SECTSZ = 2048
	// largest byte count an ATAPI drive is asked to move per DRQ burst
	ATAPI_MAXBURST = 0xf800
	// sector size probe gives up after this many bytes
	maxsectsz = 1 << 16
)
