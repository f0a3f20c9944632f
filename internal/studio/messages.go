package studio

// User-facing messages. Details of remote failures go to the log only.
const (
	MsgProductRequired    = "Silakan unggah gambar produk terlebih dahulu."
	MsgBackgroundRequired = "Silakan isi deskripsi latar belakang atau gunakan analisa AI."
	MsgAnalyzeFailed      = "Gagal menganalisa gambar. Coba lagi."
	MsgGenerateFailed     = "Terjadi kesalahan saat menghubungi server AI."
	MsgEmptyResult        = "Gagal membuat foto produk. Silakan coba deskripsi yang berbeda."
	MsgReadFailed         = "Gagal membaca gambar. Pastikan file yang dipilih adalah gambar."
	MsgBusy               = "Permintaan sebelumnya masih diproses."
)
