package constants

const Title = "Secure file copy client"

const (
	CLIENT_VERSION       = 100  // Protocol version byte sent in every request
	NETWORK_CHUNK_SIZE   = 1024 // Max bytes per socket read/write call
	REQUEST_HEADER_SIZE  = 23   // 16 (client id) + 1 (version) + 2 (op code) + 4 (payload size)
	RESPONSE_HEADER_SIZE = 7    // 1 (version) + 2 (op code) + 4 (payload size)
	CLIENT_ID_SIZE       = 16   // UUID bytes
	NAME_FIELD_SIZE      = 255  // Null terminated, zero padded name slot
	MAX_NAME_LENGTH      = 254  // Leaves room for the terminator
	MAX_ATTEMPTS         = 4    // Attempts per failure category before giving up
	DEFAULT_PORT         = 1256 // Used when transfer.info omits the port
	DEFAULT_TIMEOUT      = 30   // Socket deadline in seconds (0 disables)
	DEFAULT_DSCP         = 0x0A // QoS for high throughput
	RSA_KEY_BITS         = 1024 // Server decrypts with matching modulus
	AES_KEY_SIZE         = 32   // AES-256
	AES_IV_SIZE          = 16   // One AES block
)

const (
	TRANSFER_INFO_FILE = "transfer.info"
	ME_INFO_FILE       = "me.info"
	PRIVATE_KEY_FILE   = "priv.key"
)
