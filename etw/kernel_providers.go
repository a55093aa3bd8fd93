package etw

// Manifest providers.
var (
	// Microsoft-Windows-Kernel-File
	KernelFileGuid = MustParseGUID("{edd08927-9cc4-4e65-b970-c2560fb5c289}")
	// Microsoft-Windows-Kernel-Process
	KernelProcessGuid = MustParseGUID("{22fb2cd6-0e7b-422b-a0c7-2fad1fd0e716}")
)

// NT Kernel Logger classic providers. Each GUID is the event class of a
// group of MOF event types.
var (
	// https://learn.microsoft.com/en-us/windows/win32/etw/alpc
	ALPCKernelGuid = MustParseGUID("{45d8cccd-539f-4b72-a8b7-5c683142609a}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/diskio
	DiskIoKernelGuid = MustParseGUID("{3d6fa8d4-fe05-11d0-9dda-00c04fd7ba7c}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/fileio
	FileIoKernelGuid = MustParseGUID("{90cbdc39-4a3e-11d1-84f4-0000f80464e3}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/image
	ImageLoadKernelGuid = MustParseGUID("{2cb15d1d-5fc1-11d2-abe1-00a0c911f518}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/process
	ProcessKernelGuid = MustParseGUID("{3d6fa8d0-fe05-11d0-9dda-00c04fd7ba7c}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/registry
	RegistryKernelGuid = MustParseGUID("{ae53722e-c863-11d2-8659-00c04fa321a1}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/tcpip
	TcpIpKernelGuid = MustParseGUID("{9a280ac0-c8e0-11d1-84e2-00c04fb998a2}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/thread
	ThreadKernelGuid = MustParseGUID("{3d6fa8d1-fe05-11d0-9dda-00c04fd7ba7c}")
	// https://learn.microsoft.com/en-us/windows/win32/etw/udpip
	UdpIpKernelGuid = MustParseGUID("{bf3a50c5-a9c9-4988-a005-2df0b7c80f80}")
)

// Microsoft-Windows-Kernel-File keywords.
const (
	KERNEL_FILE_KEYWORD_FILENAME            = 0x10
	KERNEL_FILE_KEYWORD_FILEIO              = 0x20
	KERNEL_FILE_KEYWORD_OP_END              = 0x40
	KERNEL_FILE_KEYWORD_CREATE              = 0x80
	KERNEL_FILE_KEYWORD_READ                = 0x100
	KERNEL_FILE_KEYWORD_WRITE               = 0x200
	KERNEL_FILE_KEYWORD_DELETE_PATH         = 0x400
	KERNEL_FILE_KEYWORD_RENAME_SETLINK_PATH = 0x800
	KERNEL_FILE_KEYWORD_CREATE_NEW_FILE     = 0x1000
)

// Microsoft-Windows-Kernel-Process keywords.
const (
	WINEVENT_KEYWORD_PROCESS = 0x10
	WINEVENT_KEYWORD_THREAD  = 0x20
	WINEVENT_KEYWORD_IMAGE   = 0x40
)

// KernelProviders are the catalog entries of the built-in providers.
var KernelProviders = []*ProviderInfo{
	{
		Name: "Microsoft-Windows-Kernel-File",
		GUID: *KernelFileGuid,
		Keywords: []Keyword{
			{KERNEL_FILE_KEYWORD_FILENAME, "KERNEL_FILE_KEYWORD_FILENAME"},
			{KERNEL_FILE_KEYWORD_FILEIO, "KERNEL_FILE_KEYWORD_FILEIO"},
			{KERNEL_FILE_KEYWORD_OP_END, "KERNEL_FILE_KEYWORD_OP_END"},
			{KERNEL_FILE_KEYWORD_CREATE, "KERNEL_FILE_KEYWORD_CREATE"},
			{KERNEL_FILE_KEYWORD_READ, "KERNEL_FILE_KEYWORD_READ"},
			{KERNEL_FILE_KEYWORD_WRITE, "KERNEL_FILE_KEYWORD_WRITE"},
			{KERNEL_FILE_KEYWORD_DELETE_PATH, "KERNEL_FILE_KEYWORD_DELETE_PATH"},
			{KERNEL_FILE_KEYWORD_RENAME_SETLINK_PATH, "KERNEL_FILE_KEYWORD_RENAME_SETLINK_PATH"},
			{KERNEL_FILE_KEYWORD_CREATE_NEW_FILE, "KERNEL_FILE_KEYWORD_CREATE_NEW_FILE"},
			{0x8000000000000000, "Microsoft-Windows-Kernel-File/Analytic"},
		},
	},
	{
		Name: "Microsoft-Windows-Kernel-Process",
		GUID: *KernelProcessGuid,
		Keywords: []Keyword{
			{WINEVENT_KEYWORD_PROCESS, "WINEVENT_KEYWORD_PROCESS"},
			{WINEVENT_KEYWORD_THREAD, "WINEVENT_KEYWORD_THREAD"},
			{WINEVENT_KEYWORD_IMAGE, "WINEVENT_KEYWORD_IMAGE"},
			{0x80, "WINEVENT_KEYWORD_CPU_PRIORITY"},
			{0x100, "WINEVENT_KEYWORD_OTHER_PRIORITY"},
			{0x200, "WINEVENT_KEYWORD_PROCESS_FREEZE"},
			{0x400, "WINEVENT_KEYWORD_JOB"},
			{0x800, "WINEVENT_KEYWORD_ENABLE_PROCESS_TRACING_CALLBACKS"},
			{0x1000, "WINEVENT_KEYWORD_JOB_IO"},
			{0x2000, "WINEVENT_KEYWORD_WORK_ON_BEHALF"},
			{0x4000, "WINEVENT_KEYWORD_JOB_SILO"},
			{0x8000000000000000, "Microsoft-Windows-Kernel-Process/Analytic"},
		},
	},
	{Name: "ALPC", GUID: *ALPCKernelGuid},
	{Name: "DiskIo", GUID: *DiskIoKernelGuid},
	{Name: "FileIo", GUID: *FileIoKernelGuid},
	{Name: "ImageLoad", GUID: *ImageLoadKernelGuid},
	{Name: "Process", GUID: *ProcessKernelGuid},
	{Name: "Registry", GUID: *RegistryKernelGuid},
	{Name: "TcpIp", GUID: *TcpIpKernelGuid},
	{Name: "Thread", GUID: *ThreadKernelGuid},
	{Name: "UdpIp", GUID: *UdpIpKernelGuid},
}

// IsKernelProvider reports whether nameOrGUID is one of the classic NT
// Kernel Logger providers.
func IsKernelProvider(nameOrGUID string) bool {
	p := ResolveProvider(nameOrGUID)
	if p.IsZero() {
		return false
	}
	for _, kp := range KernelProviders[2:] {
		if kp.GUID.Equals(&p.GUID) {
			return true
		}
	}
	return false
}

func init() {
	for _, p := range KernelProviders {
		DefaultRegistry.RegisterProvider(p)
	}
}
