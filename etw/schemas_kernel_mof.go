package etw

// NT Kernel Logger classic (MOF) event classes.
//
// https://learn.microsoft.com/en-us/windows/win32/etw/msnt-systemtrace

func mofClass(provider string, guid *GUID, name string, version uint8, types []EventType, props ...PropertyDef) *EventSchema {
	return &EventSchema{
		Name:       name,
		Provider:   provider,
		GUID:       *guid,
		Version:    version,
		TaskName:   provider,
		Classic:    true,
		EventTypes: types,
		Properties: props,
	}
}

var (
	fileIoNameTypes     = []EventType{{0, "Name"}, {32, "FileCreate"}, {35, "FileDelete"}, {36, "FileRundown"}}
	fileIoCreateTypes   = []EventType{{64, "Create"}}
	fileIoSimpleTypes   = []EventType{{65, "Cleanup"}, {66, "Close"}, {73, "Flush"}}
	fileIoRWTypes       = []EventType{{67, "Read"}, {68, "Write"}}
	fileIoInfoTypes     = []EventType{{69, "SetInfo"}, {70, "Delete"}, {71, "Rename"}, {74, "QueryInfo"}, {75, "FSControl"}}
	fileIoDirEnumTypes  = []EventType{{72, "DirEnum"}, {77, "DirNotify"}}
	fileIoOpEndTypes    = []EventType{{76, "OperationEnd"}}
	imageLoadTypes      = []EventType{{10, "Load"}, {2, "UnLoad"}, {3, "DCStart"}, {4, "DCEnd"}}
	processGroup1Types  = []EventType{{1, "Start"}, {2, "End"}, {3, "DCStart"}, {4, "DCEnd"}, {39, "Defunct"}}
	threadGroup1Types   = []EventType{{1, "Start"}, {2, "End"}, {3, "DCStart"}, {4, "DCEnd"}}
	tcpIpGroup1Types    = []EventType{{10, "SendIPV4"}, {11, "RecvIPV4"}, {12, "DisconnectIPV4"}, {13, "RetransmitIPV4"}, {14, "ReconnectIPV4"}, {16, "TCPCopyIPV4"}}
	registryGroup1Types = []EventType{
		{10, "Create"}, {11, "Open"}, {12, "Delete"}, {13, "Query"}, {14, "SetValue"},
		{15, "DeleteValue"}, {16, "QueryValue"}, {17, "EnumerateKey"}, {18, "EnumerateValueKey"},
		{19, "QueryMultipleValue"}, {20, "SetInformation"}, {21, "Flush"}, {22, "KCBCreate"},
		{23, "KCBDelete"}, {24, "KCBRundownBegin"}, {25, "KCBRundownEnd"}, {26, "Virtualize"},
		{27, "Close"},
	}
)

// FileIo, version 2.
var (
	FileIo_V2_Name = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_Name", 2, fileIoNameTypes,
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)
	FileIo_V2_Create = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_Create", 2, fileIoCreateTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("TTID", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		propOut("CreateOptions", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("FileAttributes", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ShareAccess", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("OpenPath", TDH_INTYPE_UNICODESTRING),
	)
	FileIo_V2_SimpleOp = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_SimpleOp", 2, fileIoSimpleTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("TTID", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
	)
	FileIo_V2_ReadWrite = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_ReadWrite", 2, fileIoRWTypes,
		prop("Offset", TDH_INTYPE_UINT64),
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("TTID", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("IoSize", TDH_INTYPE_UINT32),
		propOut("IoFlags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
	)
	FileIo_V2_Info = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_Info", 2, fileIoInfoTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("TTID", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("ExtraInfo", TDH_INTYPE_POINTER),
		prop("InfoClass", TDH_INTYPE_UINT32),
	)
	FileIo_V2_DirEnum = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_DirEnum", 2, fileIoDirEnumTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("TTID", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("Length", TDH_INTYPE_UINT32),
		prop("InfoClass", TDH_INTYPE_UINT32),
		prop("FileIndex", TDH_INTYPE_UINT32),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)
	FileIo_V2_OpEnd = mofClass("FileIo", FileIoKernelGuid, "FileIo_V2_OpEnd", 2, fileIoOpEndTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("ExtraInfo", TDH_INTYPE_POINTER),
		propOut("NtStatus", TDH_INTYPE_UINT32, TDH_OUTTYPE_NTSTATUS),
	)
)

// FileIo, version 3. The thread id moved after the file fields and is a
// plain 32-bit value.
var (
	FileIo_V3_Name = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_Name", 3, fileIoNameTypes,
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)
	FileIo_V3_Create = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_Create", 3, fileIoCreateTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		propOut("TTID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		propOut("CreateOptions", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("FileAttributes", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ShareAccess", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("OpenPath", TDH_INTYPE_UNICODESTRING),
	)
	FileIo_V3_SimpleOp = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_SimpleOp", 3, fileIoSimpleTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("TTID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
	)
	FileIo_V3_ReadWrite = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_ReadWrite", 3, fileIoRWTypes,
		prop("Offset", TDH_INTYPE_UINT64),
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("TTID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("IoSize", TDH_INTYPE_UINT32),
		propOut("IoFlags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
	)
	FileIo_V3_Info = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_Info", 3, fileIoInfoTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("ExtraInfo", TDH_INTYPE_POINTER),
		propOut("TTID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("InfoClass", TDH_INTYPE_UINT32),
	)
	FileIo_V3_DirEnum = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_DirEnum", 3, fileIoDirEnumTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("TTID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("Length", TDH_INTYPE_UINT32),
		prop("InfoClass", TDH_INTYPE_UINT32),
		prop("FileIndex", TDH_INTYPE_UINT32),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)
	FileIo_V3_OpEnd = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_OpEnd", 3, fileIoOpEndTypes,
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("ExtraInfo", TDH_INTYPE_POINTER),
		propOut("NtStatus", TDH_INTYPE_UINT32, TDH_OUTTYPE_NTSTATUS),
	)

	// Opcodes 83 and 84 have no published class. Layout inferred from
	// captured payloads: IrpPtr FileObject FileKey ExtraInfo TTID InfoClass.
	FileIo_V3_Type8X = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_Type8X", 3,
		[]EventType{{83, "Type83"}, {84, "Type84"}},
		prop("IrpPtr", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("ExtraInfo", TDH_INTYPE_POINTER),
		propOut("TTID", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("InfoClass", TDH_INTYPE_UINT32),
	)

	// MapFile and UnmapFile are not in the system manifest. Like the V2
	// MapFile class with a trailing 32-bit field.
	FileIo_V3_MapFile = mofClass("FileIo", FileIoKernelGuid, "FileIo_V3_MapFile", 3,
		[]EventType{{37, "MapFile"}, {38, "UnmapFile"}, {39, "MapFileDCStart"}},
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("ImageBase", TDH_INTYPE_POINTER),
		prop("ViewBase", TDH_INTYPE_POINTER),
		propOut("PageProtection", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ProcessId", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("Reserved", TDH_INTYPE_UINT32),
	)
)

var (
	Image_V3_Load = mofClass("ImageLoad", ImageLoadKernelGuid, "Image_V3_Load", 3, imageLoadTypes,
		prop("ImageBase", TDH_INTYPE_POINTER),
		propOut("ImageSize", TDH_INTYPE_POINTER, TDH_OUTTYPE_HEXINT64),
		propOut("ProcessId", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		propOut("ImageCheckSum", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("TimeDateStamp", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("Reserved0", TDH_INTYPE_UINT32),
		prop("DefaultBase", TDH_INTYPE_POINTER),
		prop("Reserved1", TDH_INTYPE_UINT32),
		prop("Reserved2", TDH_INTYPE_UINT32),
		prop("Reserved3", TDH_INTYPE_UINT32),
		prop("Reserved4", TDH_INTYPE_UINT32),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)

	Process_V4_TypeGroup1 = mofClass("Process", ProcessKernelGuid, "Process_V4_TypeGroup1", 4, processGroup1Types,
		prop("UniqueProcessKey", TDH_INTYPE_POINTER),
		propOut("ProcessId", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		propOut("ParentId", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		prop("SessionId", TDH_INTYPE_UINT32),
		propOut("ExitStatus", TDH_INTYPE_INT32, TDH_OUTTYPE_NTSTATUS),
		prop("DirectoryTableBase", TDH_INTYPE_POINTER),
		propOut("Flags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("UserSID", TDH_INTYPE_WBEMSID),
		prop("ImageFileName", TDH_INTYPE_ANSISTRING),
		prop("CommandLine", TDH_INTYPE_UNICODESTRING),
		prop("PackageFullName", TDH_INTYPE_UNICODESTRING),
		prop("ApplicationId", TDH_INTYPE_UNICODESTRING),
	)

	Thread_V3_TypeGroup1 = mofClass("Thread", ThreadKernelGuid, "Thread_V3_TypeGroup1", 3, threadGroup1Types,
		propOut("ProcessId", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		propOut("TThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("StackBase", TDH_INTYPE_POINTER),
		prop("StackLimit", TDH_INTYPE_POINTER),
		prop("UserStackBase", TDH_INTYPE_POINTER),
		prop("UserStackLimit", TDH_INTYPE_POINTER),
		prop("Affinity", TDH_INTYPE_POINTER),
		prop("Win32StartAddr", TDH_INTYPE_POINTER),
		prop("TebBase", TDH_INTYPE_POINTER),
		propOut("SubProcessTag", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("BasePriority", TDH_INTYPE_UINT8),
		prop("PagePriority", TDH_INTYPE_UINT8),
		prop("IoPriority", TDH_INTYPE_UINT8),
		propOut("ThreadFlags", TDH_INTYPE_UINT8, TDH_OUTTYPE_HEXINT8),
	)

	Registry_V2_TypeGroup1 = mofClass("Registry", RegistryKernelGuid, "Registry_V2_TypeGroup1", 2, registryGroup1Types,
		prop("InitialTime", TDH_INTYPE_INT64),
		propOut("Status", TDH_INTYPE_UINT32, TDH_OUTTYPE_NTSTATUS),
		prop("Index", TDH_INTYPE_UINT32),
		prop("KeyHandle", TDH_INTYPE_POINTER),
		prop("KeyName", TDH_INTYPE_UNICODESTRING),
	)

	// Opcode 33 has no published class. Same layout as the group 1 class.
	Registry_V2_Type33 = mofClass("Registry", RegistryKernelGuid, "Registry_V2_Type33", 2,
		[]EventType{{33, "Type33"}},
		prop("InitialTime", TDH_INTYPE_INT64),
		propOut("Status", TDH_INTYPE_UINT32, TDH_OUTTYPE_NTSTATUS),
		prop("Index", TDH_INTYPE_UINT32),
		prop("KeyHandle", TDH_INTYPE_POINTER),
		prop("KeyName", TDH_INTYPE_UNICODESTRING),
	)

	TcpIp_V2_TypeGroup1 = mofClass("TcpIp", TcpIpKernelGuid, "TcpIp_V2_TypeGroup1", 2, tcpIpGroup1Types,
		propOut("PID", TDH_INTYPE_UINT32, TDH_OUTTYPE_PID),
		prop("size", TDH_INTYPE_UINT32),
		propOut("daddr", TDH_INTYPE_UINT32, TDH_OUTTYPE_IPV4),
		propOut("saddr", TDH_INTYPE_UINT32, TDH_OUTTYPE_IPV4),
		propOut("dport", TDH_INTYPE_UINT16, TDH_OUTTYPE_PORT),
		propOut("sport", TDH_INTYPE_UINT16, TDH_OUTTYPE_PORT),
		prop("connid", TDH_INTYPE_POINTER),
		prop("seqnum", TDH_INTYPE_UINT32),
	)

	// Opcodes 38, 39 and 41 have no published class. Payloads are 4 bytes.
	ALPC_V2_Type38 = mofClass("ALPC", ALPCKernelGuid, "ALPC_V2_Type38", 2,
		[]EventType{{38, "Type38"}, {39, "Type39"}, {41, "Type41"}},
		prop("Data", TDH_INTYPE_UINT32),
	)
)

var KernelMofSchemas = []*EventSchema{
	FileIo_V2_Name, FileIo_V2_Create, FileIo_V2_SimpleOp, FileIo_V2_ReadWrite,
	FileIo_V2_Info, FileIo_V2_DirEnum, FileIo_V2_OpEnd,
	FileIo_V3_Name, FileIo_V3_Create, FileIo_V3_SimpleOp, FileIo_V3_ReadWrite,
	FileIo_V3_Info, FileIo_V3_DirEnum, FileIo_V3_OpEnd,
	FileIo_V3_Type8X, FileIo_V3_MapFile,
	Image_V3_Load,
	Process_V4_TypeGroup1,
	Thread_V3_TypeGroup1,
	Registry_V2_TypeGroup1, Registry_V2_Type33,
	TcpIp_V2_TypeGroup1,
	ALPC_V2_Type38,
}

func init() {
	DefaultRegistry.MustRegister(KernelMofSchemas...)
}
