package etw

// Microsoft-Windows-Kernel-File manifest events.

func kernelFileEvent(id uint16, version uint8, name string, opcode uint8, keyword uint64, props ...PropertyDef) *EventSchema {
	return &EventSchema{
		Name:     name,
		Provider: "Microsoft-Windows-Kernel-File",
		GUID:     *KernelFileGuid,
		Id:       id,
		Version:  version,
		Opcode:   opcode,
		Level:    4,
		Task:     id,
		TaskName: name,
		Keyword:  keyword | 0x8000000000000000,

		Properties: props,
	}
}

func prop(name string, in TdhInType) PropertyDef {
	return PropertyDef{Name: name, InType: in}
}

func propOut(name string, in TdhInType, out TdhOutType) PropertyDef {
	return PropertyDef{Name: name, InType: in, OutType: out}
}

var (
	KernelFileNameCreate = kernelFileEvent(10, 0, "NameCreate", 0, KERNEL_FILE_KEYWORD_FILENAME,
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)

	KernelFileNameDelete = kernelFileEvent(11, 0, "NameDelete", 0, KERNEL_FILE_KEYWORD_FILENAME,
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)

	KernelFileCreate = kernelFileEvent(12, 1, "Create", 0, KERNEL_FILE_KEYWORD_CREATE,
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		propOut("CreateOptions", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("CreateAttributes", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ShareAccess", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)

	KernelFileCleanup = kernelFileEvent(13, 0, "Cleanup", 0, KERNEL_FILE_KEYWORD_FILEIO,
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
	)

	KernelFileClose = kernelFileEvent(14, 0, "Close", 0, KERNEL_FILE_KEYWORD_FILEIO,
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
	)

	KernelFileRead = kernelFileEvent(15, 1, "Read", 0, KERNEL_FILE_KEYWORD_READ,
		propOut("ByteOffset", TDH_INTYPE_UINT64, TDH_OUTTYPE_HEXINT64),
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("IOSize", TDH_INTYPE_UINT32),
		propOut("IOFlags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ExtraFlags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
	)

	KernelFileWrite = kernelFileEvent(16, 1, "Write", 0, KERNEL_FILE_KEYWORD_WRITE,
		propOut("ByteOffset", TDH_INTYPE_UINT64, TDH_OUTTYPE_HEXINT64),
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("IOSize", TDH_INTYPE_UINT32),
		propOut("IOFlags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ExtraFlags", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
	)

	KernelFileDeletePath = kernelFileEvent(26, 1, "DeletePath", 0, KERNEL_FILE_KEYWORD_DELETE_PATH,
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("ExtraInformation", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("InfoClass", TDH_INTYPE_UINT32),
		prop("FilePath", TDH_INTYPE_UNICODESTRING),
	)

	KernelFileRenamePath = kernelFileEvent(27, 1, "RenamePath", 0, KERNEL_FILE_KEYWORD_RENAME_SETLINK_PATH,
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		prop("FileKey", TDH_INTYPE_POINTER),
		prop("ExtraInformation", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		prop("InfoClass", TDH_INTYPE_UINT32),
		prop("FilePath", TDH_INTYPE_UNICODESTRING),
	)

	KernelFileCreateNewFile = kernelFileEvent(30, 0, "CreateNewFile", 0, KERNEL_FILE_KEYWORD_CREATE_NEW_FILE,
		prop("Irp", TDH_INTYPE_POINTER),
		prop("FileObject", TDH_INTYPE_POINTER),
		propOut("IssuingThreadId", TDH_INTYPE_UINT32, TDH_OUTTYPE_TID),
		propOut("CreateOptions", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("CreateAttributes", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		propOut("ShareAccess", TDH_INTYPE_UINT32, TDH_OUTTYPE_HEXINT32),
		prop("FileName", TDH_INTYPE_UNICODESTRING),
	)
)

// KernelFileSchemas lists the built-in Microsoft-Windows-Kernel-File events.
var KernelFileSchemas = []*EventSchema{
	KernelFileNameCreate,
	KernelFileNameDelete,
	KernelFileCreate,
	KernelFileCleanup,
	KernelFileClose,
	KernelFileRead,
	KernelFileWrite,
	KernelFileDeletePath,
	KernelFileRenamePath,
	KernelFileCreateNewFile,
}

func init() {
	DefaultRegistry.MustRegister(KernelFileSchemas...)
}
